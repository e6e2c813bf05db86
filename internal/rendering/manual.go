package rendering

import (
	"fmt"
	"strings"

	"github.com/AmyLu0828/the-resume-hub/internal/types"
)

// placeholderName is used when the resume has no name at all
const placeholderName = "Your Name"

var sectionTitles = map[string]string{
	types.SectionAboutMe:    "About Me",
	types.SectionEducation:  "Education",
	types.SectionExperience: "Experience",
	types.SectionSkills:     "Skills",
}

// ManualHeader builds the header fragment directly from resume data
func ManualHeader(data *types.ResumeData) string {
	name := EscapeLaTeX(data.FullName())
	if name == "" {
		name = placeholderName
	}

	var b strings.Builder
	b.WriteString("\\begin{center}\n")
	fmt.Fprintf(&b, "{\\Huge \\textbf{%s}}", name)

	contacts := make([]string, 0, len(data.Contact))
	for _, c := range data.Contact {
		if line := contactLine(c); line != "" {
			contacts = append(contacts, line)
		}
	}
	if len(contacts) > 0 {
		b.WriteString(" \\\\\n\\vspace{2pt}\n")
		b.WriteString(strings.Join(contacts, " $|$ "))
	}
	b.WriteString("\n\\end{center}")
	return b.String()
}

func contactLine(c types.Contact) string {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return ""
	}
	switch kind := strings.ToLower(strings.TrimSpace(c.Type)); {
	case kind == "email":
		return fmt.Sprintf("\\href{mailto:%s}{%s}", escapeURL(value), EscapeLaTeX(value))
	case kind == "phone":
		return EscapeLaTeX(value)
	case kind == "linkedin", kind == "github", kind == "website", kind == "url", isURL(value):
		return fmt.Sprintf("\\url{%s}", escapeURL(value))
	default:
		return EscapeLaTeX(value)
	}
}

func isURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "www.")
}

// ManualSection builds one body section. It returns "" when the section has
// nothing to show, which the assembler treats as an omitted section.
func ManualSection(section string, data *types.ResumeData) string {
	if !data.HasContent(section) {
		return ""
	}
	switch section {
	case types.SectionAboutMe:
		return aboutMeSection(data.AboutMe)
	case types.SectionEducation:
		return educationSection(data.Education)
	case types.SectionExperience:
		return experienceSection(data.Experience)
	case types.SectionSkills:
		return skillsSection(data.Skills)
	case types.SectionCustomSections:
		return customSections(data.CustomSections)
	default:
		return ""
	}
}

// ManualFragments builds the header and every body section in one go
func ManualFragments(data *types.ResumeData) (string, map[string]string) {
	sections := make(map[string]string, len(types.BodySections))
	for _, name := range types.BodySections {
		sections[name] = ManualSection(name, data)
	}
	return ManualHeader(data), sections
}

func heading(section string) string {
	return fmt.Sprintf("\\section*{%s}", sectionTitles[section])
}

func aboutMeSection(a types.AboutMe) string {
	text := strings.TrimSpace(a.Summary())
	if text == "" {
		return ""
	}
	return heading(types.SectionAboutMe) + "\n" + EscapeLaTeX(text)
}

func educationSection(entries []types.Education) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "\\textbf{%s} \\hfill %s \\\\\n", EscapeLaTeX(e.Degree), FormatDateRange(e.StartDate, e.EndDate))
		fmt.Fprintf(&b, "\\textit{%s}", EscapeLaTeX(e.Institution))
		if text := strings.TrimSpace(e.Text()); text != "" {
			b.WriteString(" \\\\\n")
			b.WriteString(EscapeLaTeX(text))
		}
		blocks = append(blocks, b.String())
	}
	return joinBlocks(types.SectionEducation, blocks)
}

func experienceSection(entries []types.Experience) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "\\textbf{%s} \\hfill %s \\\\\n", EscapeLaTeX(e.Title), FormatDateRange(e.StartDate, e.EndDate))
		fmt.Fprintf(&b, "\\textit{%s}", EscapeLaTeX(e.Company))
		if text := strings.TrimSpace(e.Text()); text != "" {
			b.WriteString(" \\\\\n")
			b.WriteString(EscapeLaTeX(text))
		}
		if kw := keywordList(e.Keywords); kw != "" {
			b.WriteString(" \\\\\n\\textit{")
			b.WriteString(kw)
			b.WriteString("}")
		}
		blocks = append(blocks, b.String())
	}
	return joinBlocks(types.SectionExperience, blocks)
}

func keywordList(keywords []string) string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, EscapeLaTeX(k))
		}
	}
	return strings.Join(out, ", ")
}

func skillsSection(skills []types.Skill) string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		if v := strings.TrimSpace(s.Skill); v != "" {
			names = append(names, EscapeLaTeX(v))
		}
	}
	if len(names) == 0 {
		return ""
	}
	return heading(types.SectionSkills) + "\n" + strings.Join(names, ", ")
}

// customSections renders each custom section under its own heading
func customSections(entries []types.CustomSection) string {
	blocks := make([]string, 0, len(entries))
	for _, c := range entries {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			continue
		}
		block := fmt.Sprintf("\\section*{%s}", EscapeLaTeX(title))
		if content := strings.TrimSpace(c.Content); content != "" {
			block += "\n" + EscapeLaTeX(content)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func joinBlocks(section string, blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	return heading(section) + "\n" + strings.Join(blocks, "\n\n\\vspace{4pt}\n")
}
