package imageset

// Indices into the 40-wide face attribute vector.
const (
	attrFiveOClockShadow = 0
	attrEyeglasses       = 15
	attrGoatee           = 16
	attrMale             = 20
	attrMustache         = 22
	attrNoBeard          = 24

	// AttributeCount is the fixed width of the binary attribute vector.
	AttributeCount = 40

	// Unclassified marks a sample matched by no attribute rule; such
	// samples are excluded from the final record.
	Unclassified = -1
)

// IsMaleNoStubble reports whether the sample is male without a five o'clock
// shadow, the qualifying condition shared by every attribute rule.
func IsMaleNoStubble(attrs []int8) bool {
	return attrs[attrMale] == 1 && attrs[attrFiveOClockShadow] == 0
}

// HasBeard reports whether the sample carries any facial hair marker.
func HasBeard(attrs []int8) bool {
	return attrs[attrMustache] == 1 || attrs[attrGoatee] == 1 || attrs[attrNoBeard] == 0
}

// HasGlasses reports whether the sample wears eyeglasses.
func HasGlasses(attrs []int8) bool {
	return attrs[attrEyeglasses] == 1
}

// AttributeRule pairs a predicate over an attribute vector with the class id
// assigned to matching samples. Rule ids are used raw, with no dense remap.
type AttributeRule struct {
	Match func(attrs []int8) bool
	Class int
}

// beardGlassesRules derives two mutually exclusive classes: bearded men
// without glasses and beardless men with glasses.
var beardGlassesRules = []AttributeRule{
	{
		Match: func(attrs []int8) bool {
			return IsMaleNoStubble(attrs) && HasBeard(attrs) && !HasGlasses(attrs)
		},
		Class: 0,
	},
	{
		Match: func(attrs []int8) bool {
			return IsMaleNoStubble(attrs) && !HasBeard(attrs) && HasGlasses(attrs)
		},
		Class: 1,
	},
}

// ClassifyAttributes evaluates the rules in order, first match wins, and
// returns Unclassified when no rule matches.
func ClassifyAttributes(rules []AttributeRule, attrs []int8) int {
	for _, rule := range rules {
		if rule.Match(attrs) {
			return rule.Class
		}
	}
	return Unclassified
}
