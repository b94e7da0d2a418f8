package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/datum-tools/imageset"
	"github.com/datum-tools/imageset/utils"
)

const HelpBanner = `
┬┌┬┐┌─┐┌─┐┌─┐┌─┐┌─┐┌┬┐
││││├─┤│ ┬├┤ └─┐├┤  │
┴┴ ┴┴ ┴└─┘└─┘└─┘└─┘ ┴

Image dataset extraction library.
    Version: %s

Supported datasets: %s
`

// Version indicates the current build version.
var Version string

// optionFlags collects repeated -opt key=value flags.
type optionFlags map[string]string

func (o optionFlags) String() string {
	pairs := make([]string, 0, len(o))
	for k, v := range o {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (o optionFlags) Set(value string) error {
	key, val, found := strings.Cut(value, "=")
	if !found {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	o[key] = val
	return nil
}

var (
	dataset = flag.String("dataset", "", "Dataset name")
	baseDir = flag.String("data", "", "Base storage directory of the raw dataset")
	opts    = optionFlags{}
)

func main() {
	log.SetFlags(0)

	flag.Var(opts, "opt", "Dataset specific option as key=value (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version, strings.Join(imageset.Datasets(), ", "))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dataset == "" || *baseDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	newReader, err := imageset.Resolve(*dataset)
	if err != nil {
		log.Fatalf(utils.DecorateText("%v", utils.ErrorMessage), err)
	}
	r, err := newReader(*baseDir, opts)
	if err != nil {
		log.Fatalf(utils.DecorateText("%s: %v", utils.ErrorMessage), *dataset, err)
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ IMAGESET", utils.StatusMessage),
		utils.DecorateText("is extracting "+*dataset+"...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*200)

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	if interactive {
		spinner.Start()
	}

	start := time.Now()
	rec, err := r.Read()
	if interactive {
		spinner.Stop()
	}
	if err != nil {
		log.Fatalf(utils.DecorateText("%s: %v", utils.ErrorMessage), *dataset, err)
	}

	classes := 0
	for _, class := range rec.Classes {
		if class+1 > classes {
			classes = class + 1
		}
	}

	log.Printf("%s %s",
		utils.DecorateText("✔ Done", utils.SuccessMessage),
		utils.DecorateText(
			fmt.Sprintf("in %s: %d samples, %d classes",
				utils.FormatTime(time.Since(start)), rec.Len(), classes),
			utils.DefaultMessage))
}
