package expert

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func render(name string, pc PromptContext) string {
	var sb strings.Builder
	// Templates are parsed at init, so execution can only fail on a bad
	// template reference, which is a programming error.
	if err := promptTemplates.ExecuteTemplate(&sb, name, pc); err != nil {
		panic(err)
	}
	return sb.String()
}

func questionPrompts(pc PromptContext, followup bool) (system, user string) {
	if followup {
		return render("followup_question_system.tmpl", pc), render("followup_question_user.tmpl", pc)
	}
	return render("interview_question_system.tmpl", pc), render("interview_question_user.tmpl", pc)
}

func assessmentPrompts(pc PromptContext, followup bool) (system, user string) {
	if followup {
		return render("followup_assessment_system.tmpl", pc), render("followup_assessment_user.tmpl", pc)
	}
	return render("assessment_system.tmpl", pc), render("assessment_user.tmpl", pc)
}
