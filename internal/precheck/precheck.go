// Package precheck gates resumes with deterministic rules before any
// paid AI call is made.
package precheck

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type rules struct {
	MinWords          int      `yaml:"min_words"`
	MaxWords          int      `yaml:"max_words"`
	ExperienceAliases []string `yaml:"experience_aliases"`
	EducationAliases  []string `yaml:"education_aliases"`
	BulletGlyphs      []string `yaml:"bullet_glyphs"`
	DemographicTerms  []string `yaml:"demographic_terms"`
}

var (
	ruleSet       rules
	emailRe       = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w{2,}`)
	demographicRe *regexp.Regexp
)

func init() {
	if err := yaml.Unmarshal(rulesYAML, &ruleSet); err != nil {
		panic(fmt.Sprintf("precheck: invalid embedded rules: %v", err))
	}
	demographicRe = regexp.MustCompile(`\b(` + strings.Join(ruleSet.DemographicTerms, "|") + `)\b`)
}

// Report is the outcome of the rule gate. Failed true means the caller
// must not proceed to AI scoring.
type Report struct {
	Failed   bool     `json:"failed"`
	Feedback []string `json:"feedback"`
}

// Run evaluates the resume text against the rule set. It never errors;
// unreadable input simply fails the word-count rule.
func Run(text string) Report {
	var rep Report
	rep.Feedback = []string{}
	lower := strings.ToLower(text)
	words := len(strings.Fields(text))

	if words < ruleSet.MinWords {
		rep.Feedback = append(rep.Feedback, fmt.Sprintf("Resume seems too short (<%d words). Add more experience or details.", ruleSet.MinWords))
		rep.Failed = true
	} else if words > ruleSet.MaxWords {
		rep.Feedback = append(rep.Feedback, fmt.Sprintf("Resume seems too long (>%d words). Condense to 1-2 pages.", ruleSet.MaxWords))
		rep.Failed = true
	}

	hasExp := containsAny(lower, ruleSet.ExperienceAliases)
	hasEdu := containsAny(lower, ruleSet.EducationAliases)
	if !hasExp || !hasEdu {
		var missing []string
		if !hasExp {
			missing = append(missing, "Experience")
		}
		if !hasEdu {
			missing = append(missing, "Education")
		}
		rep.Feedback = append(rep.Feedback, fmt.Sprintf("Missing key section(s): %s.", strings.Join(missing, ", ")))
		rep.Failed = true
	}

	if !containsAny(text, ruleSet.BulletGlyphs) {
		rep.Feedback = append(rep.Feedback, "No bullet points detected. Use '-' or '*' for clarity.")
		rep.Failed = true
	}

	// Informational only; does not fail the gate.
	if demographicRe.MatchString(lower) {
		rep.Feedback = append(rep.Feedback, "Contains personal info (age, gender, religion, etc.). Remove it.")
	}

	if !emailRe.MatchString(text) {
		rep.Feedback = append(rep.Feedback, "Missing a valid email address.")
		rep.Failed = true
	}

	return rep
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
