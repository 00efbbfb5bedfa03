package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kiongozi/core"
)

var (
	includedTag  = "included"
	includedText = "section must be listed in meta.include"

	knownSectionTag  = "knownsection"
	knownSectionText = "unknown section, must be one of [leadership roleInfo psychographic]"
)

// InitValidators registers the assessment validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(submissionStructValidation, Submission{})
	core.RegisterCustomTranslation(validate, translator, includedTag, includedText)
	core.RegisterCustomTranslation(validate, translator, knownSectionTag, knownSectionText)
}

// Validate checks the shape of a Submission and collects every field error.
func (s *Submission) Validate(validate *validator.Validate) error {
	for i, name := range s.Meta.Include {
		s.Meta.Include[i] = core.CleanString(name)
	}
	return validate.Struct(s)
}

func (nf *NewTeamFeedback) Validate(validate *validator.Validate) error {
	return validate.Struct(nf)
}

// submissionStructValidation checks that every populated section is listed in meta.include
// and that no unknown section was sent.
func submissionStructValidation(sl validator.StructLevel) {
	sub, ok := sl.Current().Interface().(Submission)
	if !ok {
		return
	}
	if sub.Sections.Leadership != nil && !sub.Includes(SectionLeadership) {
		sl.ReportError(sub.Sections.Leadership, "sections."+SectionLeadership, "Leadership", includedTag, "")
	}
	if sub.Sections.RoleInfo != nil && !sub.Includes(SectionRoleInfo) {
		sl.ReportError(sub.Sections.RoleInfo, "sections."+SectionRoleInfo, "RoleInfo", includedTag, "")
	}
	if sub.Sections.Psychographic != nil && !sub.Includes(SectionPsychographic) {
		sl.ReportError(sub.Sections.Psychographic, "sections."+SectionPsychographic, "Psychographic", includedTag, "")
	}
	for _, name := range sub.unknownSections {
		sl.ReportError(name, "sections."+name, name, knownSectionTag, "")
	}
}
