package postprocess

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Label is the class of a detected object
type Label int

const (
	// Unknown is used for detector classes the tracker does not handle
	Unknown Label = iota
	Person
	Helmet
	NoHelmet
	Goggles
	NoGoggles
	Vest
	NoVest
)

// labelNames are the class names the PPE model was trained on
var labelNames = map[Label]string{
	Unknown:   "unknown",
	Person:    "Person",
	Helmet:    "helmet",
	NoHelmet:  "no-helmet",
	Goggles:   "goggles",
	NoGoggles: "no-goggles",
	Vest:      "vest",
	NoVest:    "no-vest",
}

// String returns the model class name of the label
func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("label(%d)", int(l))
}

// IsEquipment returns true if the label belongs to an EquipmentPair
func (l Label) IsEquipment() bool {
	_, ok := PairOf(l)
	return ok
}

// IsNegative returns true if the label flags a missing item of equipment
func (l Label) IsNegative() bool {
	pair, ok := PairOf(l)
	return ok && pair.Negative == l
}

// EquipmentPair is a mutually exclusive compliant/violation label pair for
// one category of protective equipment
type EquipmentPair struct {
	// Category is the display name of the equipment, eg: helmet
	Category string
	Positive Label
	Negative Label
}

// EquipmentPairs is the fixed list of equipment categories in report order
var EquipmentPairs = []EquipmentPair{
	{Category: "helmet", Positive: Helmet, Negative: NoHelmet},
	{Category: "goggles", Positive: Goggles, Negative: NoGoggles},
	{Category: "vest", Positive: Vest, Negative: NoVest},
}

// PairOf returns the EquipmentPair the label belongs to
func PairOf(l Label) (EquipmentPair, bool) {
	for _, pair := range EquipmentPairs {
		if pair.Positive == l || pair.Negative == l {
			return pair, true
		}
	}
	return EquipmentPair{}, false
}

// ParseLabel converts a model class name into a Label.  Matching ignores
// case and any '-', '_' or ' ' characters so "no-helmet", "NoHelmet" and
// "NO_HELMET" are all the same label.
func ParseLabel(name string) (Label, error) {

	key := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))

	for label, labelName := range labelNames {
		if label == Unknown {
			continue
		}
		if strings.ReplaceAll(strings.ToLower(labelName), "-", "") == key {
			return label, nil
		}
	}

	return Unknown, fmt.Errorf("unknown label %q", name)
}

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// ClassLabels maps a model's class list onto Labels.  Classes the tracker
// does not know about map to Unknown.
func ClassLabels(names []string) []Label {

	labels := make([]Label, len(names))

	for i, name := range names {
		// unknown class names are kept as Unknown so indexes stay aligned
		labels[i], _ = ParseLabel(name)
	}

	return labels
}
