package gateway

import (
	"fmt"
	"strings"

	"codeport-cli/internal/domain"
)

// convertSystemInstruction enumerates the hard rules for every conversion
// call. The gateway is asked, not forced, to honor them; the local schema
// boundary only enforces the output shape.
const convertSystemInstruction = `You are a source code translator.
Rules you must always follow:
- Preserve the project's directory structure and architecture conventions in output paths.
- Never transform build files, lockfiles, or configuration files; they are handled separately.
- Keep identifiers, comments, and string literals faithful to the original intent.
- Return only files that belong to the requested translation.`

// buildConvertPrompt shapes the per-file conversion request.
func buildConvertPrompt(file *domain.ProjectFile, source, target domain.Language, allowSplit bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Translate the following %s file to %s.\n", source, target)
	fmt.Fprintf(&b, "Original path: %s\n", file.Path)

	if allowSplit {
		b.WriteString("If idiomatic for the target language, you may split this file into multiple output files.\n")
	} else {
		b.WriteString("Maintain a strict 1:1 file mapping: emit exactly one output file. ")
		b.WriteString("Mark constructs you cannot resolve with inline TODO comments.\n")
	}

	b.WriteString("Respond with a JSON object holding a \"files\" array; each element has \"name\", \"path\", and \"content\".\n")
	b.WriteString("\nSource:\n")
	b.WriteString(file.Content)

	return b.String()
}

// buildAnalyzePrompt shapes the project classification request. Only
// names, paths, and sizes are sent; file content never leaves the machine
// for this call.
func buildAnalyzePrompt(manifest []domain.FileStat) string {
	var b strings.Builder

	b.WriteString("Classify the following project from its file manifest.\n")
	b.WriteString("Report the project type (e.g. \"Node.js\", \"Maven\"), the primary programming language, ")
	b.WriteString("the framework if one is evident, any ambiguous file names, and a suggested target language.\n")
	b.WriteString("Respond with a JSON object: projectType, primaryLanguage, framework, ambiguousFiles, suggestedTarget.\n\n")
	b.WriteString("Manifest:\n")

	for _, stat := range manifest {
		fmt.Fprintf(&b, "%s (%d bytes)\n", stat.Path, stat.Size)
	}

	return b.String()
}
