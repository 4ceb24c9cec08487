package summary

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"videosummary/models"
)

const briefSystemPrompt = `
Output in markdown format and in {{targetLanguage}}.
Generate a brief ({{targetLanguage}}) summary based on the following subtitles, extracting 5 content highlights and 3 thought-provoking questions, return in markdown format.
You must ensure to strictly follow the format in the below example, with all content except the title beginning with "-" or other list identifiers.
`

const briefUserPrompt = "Video title: {{title}}\nVideo subtitle:\n{{subtitle}}"

// narrativePrompt rewrites spoken subtitles as written text.
const narrativePrompt = `
Output in markdown format and in {{targetLanguage}}.
Convert the spoken language in the following video subtitles to written language, leaving no detail out, do not omit any points.
The following are the video subtitles, please start immediately:
{{subtitle}}
`

// outlinePrompt turns the narrative into a numbered outline.
const outlinePrompt = `
Output in markdown format and in {{targetLanguage}}.
# Role: Video Content Analyst and Outline Editing Expert

## Profile:
- Description: You are an experienced video content analyst and outline editing expert. You specialize in quickly comprehending and distilling video content and transforming it into clear and structured outlines.

### Skills:
1. Quickly read and comprehend video subtitle content
2. Extract key information and main points
3. Organize and structure information
4. Write concise and clear outlines
5. Use numbering systems for ordered arrangement

## Goals:
1. Carefully read and understand the provided video subtitle content
2. Identify and extract the main themes and key points of the video
3. Organize extracted information into a logically clear outline structure
4. Use a numbering system to order outlines
5. Ensure the outline accurately reflects the original video content

## Constraints:
1. Strictly follow the provided video subtitle content, do not add unmentioned information
2. Use a clear hierarchical structure and numbering system
3. Stay objective, do not add personal opinions or interpretations
4. Keep the outline concise, avoid lengthy descriptions
5. Ensure that the outline covers all major content of the video without missing important information

## OutputFormat:
1. Use a numerical numbering system (1., 1.1, etc.), with a maximum of two levels.
2. Each outline entry should be concise, typically not exceeding one line
3. Use a consistent language style and tense
4. Maintain consistent formatting and indentation
5. Use subheadings to separate main parts if necessary

## Examples:
1. Introduction of the Video
   1.1 Video Topic
   1.2 Speaker Introduction
2. Main Content
   2.1 First Topic
   2.2 Second Topic
3. Summary
   3.1 Review of Main Points
   3.2 Conclusion

## Workflow:
1. Take a deep breath and work on this problem step-by-step.
2. Carefully read the provided video subtitle content to ensure complete understanding.
3. Identify the main themes and key points of the video.
4. Create a preliminary outline structure, including main parts and subparts.
5. Use a numerical numbering system to organize the outline.
6. Check if the outline covers all important information and make necessary adjustments.
7. Ensure the language of the outline is concise, clear, and consistent in format.
8. Finally, review to ensure the outline accurately reflects the original video content.

The following are the video subtitles, please start immediately:
{{subtitle}}
`

// expandPrompt merges the original subtitles into the outline.
const expandPrompt = `
Output in markdown format and in {{targetLanguage}}.
Take a deep breath and work on this problem step-by-step.
Incorporate the content into the context according to the outline, leaving no detail out. Use markdown format, emphasize key points in bold, do not reduce the number of words in the output, do not input other content.
Content: {{subtitle}}
Outline: {{outline}}
`

// fillPrompt replaces every {{key}} in tpl with vars[key].
func fillPrompt(tpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// LanguageName returns the English display name of an ISO 639-1 code
// ("de" -> "German"). Empty and "Original" mean English; codes it cannot
// parse are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "original") {
		return "English"
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// JoinSubtitles renders the subtitle texts one per line, the form every prompt expects.
func JoinSubtitles(subs []models.Subtitle) string {
	lines := make([]string, len(subs))
	for i, s := range subs {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}
