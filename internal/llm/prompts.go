package llm

import (
	"fmt"
	"strings"

	"github.com/dpolishuk/coderead/internal/models"
)

const (
	temperature = 0.3

	unitMaxTokens       = 1000
	fileMaxTokens       = 500
	directoryMaxTokens  = 500
	repositoryMaxTokens = 800

	descriptionExcerpt = 200
	summaryExcerpt     = 150
)

const (
	unitSystem    = "You are an expert at reading source code and writing clear documentation for it. Be concise and accurate."
	summarySystem = "You are an expert at reading source code and writing clear documentation for it."
)

func unitRequest(language string, unit *models.CodeUnit) Request {
	prompt := fmt.Sprintf(`Analyze the following %[1]s code and explain it.

Output format:
- Overview: the purpose of this %[2]s in 1-2 sentences
- Steps: the main processing steps as bullet points
- Arguments: the role of each argument (if any)
- Return value: what it returns (if any)
- Notes: caveats or dependencies (if any)

Code:
`+"```%[1]s\n%[3]s\n```", language, unit.Type, unit.Source)

	return Request{
		System:      unitSystem,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   unitMaxTokens,
	}
}

func fileRequest(path, language string, units []UnitDescription) Request {
	var lines []string
	for _, u := range units {
		if u.Description == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s `%s`: %s...", u.Type, u.Name, excerpt(u.Description, descriptionExcerpt)))
	}
	items := strings.Join(lines, "\n")
	if items == "" {
		items = "(no code units)"
	}

	prompt := fmt.Sprintf(`Below are descriptions of the functions and classes in a file.
Summarize the role of the whole file in 2-3 sentences.

File path: %s
Language: %s

Elements:
%s

Output format:
Explain the role of the file briefly in 2-3 sentences.`, path, language, items)

	return Request{
		System:      summarySystem,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   fileMaxTokens,
	}
}

func directoryRequest(path string, files, dirs []Summary) Request {
	prompt := fmt.Sprintf(`Below are descriptions of the files and subdirectories of a directory.
Summarize the role of this directory (module) in 2-3 sentences.

Directory path: %s

Files:
%s

Subdirectories:
%s

Output format:
Explain the role of this directory briefly in 2-3 sentences.`,
		path,
		summaryList(files, "", "(no files)"),
		summaryList(dirs, "/", "(no subdirectories)"))

	return Request{
		System:      summarySystem,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   directoryMaxTokens,
	}
}

func repositoryRequest(name string, items []Summary) Request {
	prompt := fmt.Sprintf(`Below are descriptions of the files and directories at the root of a repository.
Give an overview of the whole repository in 3-5 sentences.

Repository name: %s

Root layout:
%s

Output format:
- Purpose and use of the repository
- Main features and modules
- Technology stack (when it can be determined)`, name, summaryList(items, "", "(no content)"))

	return Request{
		System:      summarySystem,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   repositoryMaxTokens,
	}
}

func summaryList(items []Summary, suffix, empty string) string {
	var lines []string
	for _, it := range items {
		if it.Summary == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- `%s%s`: %s...", it.Name, suffix, excerpt(it.Summary, summaryExcerpt)))
	}
	if len(lines) == 0 {
		return empty
	}
	return strings.Join(lines, "\n")
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
