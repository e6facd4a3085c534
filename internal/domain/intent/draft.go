package intent

import "fmt"

type RawKind string

const (
	RawKindText    RawKind = "text"
	RawKindDate    RawKind = "date_text"
	RawKindInteger RawKind = "integer"
)

// RawValue is a slot value exactly as extracted from user text. It is never
// trusted as resolved data; the normalizer/resolver produce the typed form.
type RawValue struct {
	Kind RawKind
	Text string
	Int  int
}

func RawText(text string) RawValue {
	return RawValue{Kind: RawKindText, Text: text}
}

func RawDateText(text string) RawValue {
	return RawValue{Kind: RawKindDate, Text: text}
}

func RawInteger(value int) RawValue {
	return RawValue{Kind: RawKindInteger, Int: value}
}

// Draft is the unresolved intent produced by the NLP extractor.
type Draft struct {
	Name  Name
	Slots map[SlotName]RawValue
}

// Validate checks the intent name against the schema and that every present
// slot is declared for that intent.
func (d Draft) Validate() error {
	specs, err := SlotsFor(d.Name)
	if err != nil {
		return err
	}

	declared := make(map[SlotName]struct{}, len(specs))
	for _, spec := range specs {
		declared[spec.Name] = struct{}{}
	}
	for slot := range d.Slots {
		if _, ok := declared[slot]; !ok {
			return fmt.Errorf("slot %q is not declared for intent %q", slot, d.Name)
		}
	}

	return nil
}
