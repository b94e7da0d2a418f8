/*
Package imageset extracts heterogeneous image datasets into a single uniform
in-memory record format, consumable by a downstream representation learning
pipeline.

Every supported dataset has its own raw storage layout, annotation format and
coordinate system. A reader per dataset knows how to turn that raw layout into
the common Record schema: aligned fixed-size RGB images plus identity classes,
content codes, keypoints, attributes and facial landmarks.

A reader is selected by name through the registry:

	package main

	import (
		"fmt"

		"github.com/datum-tools/imageset"
	)

	func main() {
		newReader, err := imageset.Resolve("afhq")
		if err != nil {
			// ...
		}

		r, err := newReader("/data/afhq", map[string]string{"split": "train"})
		if err != nil {
			// ...
		}

		rec, err := r.Read()
		if err != nil {
			// ...
		}
		fmt.Printf("extracted %d samples\n", rec.Len())
	}
*/
package imageset
