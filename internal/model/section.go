package model

import (
	"slices"
	"strings"
)

type Section string

const (
	SectionListening Section = "listening"
	SectionStructure Section = "structure"
	SectionReading   Section = "reading"
)

// legacySectionGrammar is the older stored spelling of SectionStructure.
const legacySectionGrammar = "grammar"

// SectionOrder is the order sections appear in an assembled test and in a review.
var SectionOrder = []Section{SectionListening, SectionStructure, SectionReading}

// ParseSection maps a stored or submitted section name onto its canonical tag.
func ParseSection(raw string) (Section, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SectionListening):
		return SectionListening, true
	case string(SectionStructure), legacySectionGrammar:
		return SectionStructure, true
	case string(SectionReading):
		return SectionReading, true
	}
	return "", false
}

// StoredValues lists every spelling under which the section may be persisted.
func (s Section) StoredValues() []string {
	if s == SectionStructure {
		return []string{string(SectionStructure), legacySectionGrammar}
	}
	return []string{string(s)}
}

// LegacyStoredValues returns the non-canonical spellings that the startup migration rewrites.
func LegacyStoredValues() map[string]Section {
	return map[string]Section{legacySectionGrammar: SectionStructure}
}

func (s Section) HasPrompts() bool {
	return s == SectionListening || s == SectionReading
}

type SimulationMode string

const (
	ModeFull      SimulationMode = "full"
	ModeListening SimulationMode = "listening"
	ModeReading   SimulationMode = "reading"
	ModeStructure SimulationMode = "structure"
)

func ParseMode(raw string) (SimulationMode, bool) {
	m := SimulationMode(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case ModeFull, ModeListening, ModeReading, ModeStructure:
		return m, true
	}
	return "", false
}

// Sections returns the sections an attempt in this mode covers.
func (m SimulationMode) Sections() []Section {
	switch m {
	case ModeFull:
		return slices.Clone(SectionOrder)
	case ModeListening:
		return []Section{SectionListening}
	case ModeReading:
		return []Section{SectionReading}
	case ModeStructure:
		return []Section{SectionStructure}
	}
	return nil
}

// IsPackage reports whether the mode assembles a single prompt group.
func (m SimulationMode) IsPackage() bool {
	return m == ModeListening || m == ModeReading
}
