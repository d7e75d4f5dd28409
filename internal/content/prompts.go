package content

import (
	"fmt"
	"strings"

	"github.com/DreamingRabbit/CP-Gen/internal/problem"
)

const statementSystem = "You are an expert competitive programming problem setter. " +
	"Create a complete, structured problem statement based on the provided idea. " +
	"Include a story, background, and characters to make it engaging. " +
	"Include a clear description, input and output formats, constraints, " +
	"sample input/output cases, time limit, and memory limit. " +
	"Do not include any commentary or explanations that hint at the solution."

const solutionSystem = "You are an expert competitive programmer. " +
	"Analyze the provided problem statement and generate a C++ solution. " +
	"Ensure the solution is efficient and adheres to constraints. " +
	"Do not include commentary or explanations."

const generatorSystem = "You are an expert competitive programmer. " +
	"Given the problem statement from problem_structured.json and a standard C++ solution from the file solution.cpp, " +
	"modify the provided generator code to produce comprehensive test cases. " +
	"Follow the naming scheme and structure of the provided example code. " +
	"Ensure the generator produces a variety of test cases, including edge cases, typical cases, and large inputs. " +
	"Do not include any commentary or explanations in the generated code. " +
	"Save the test cases generated by the generator in a folder named 'test_cases'."

const reportSystem = "You are an expert competitive programmer. " +
	"Given the problem statement from problem_structured.json and a standard C++ solution from the file solution.cpp, " +
	"analyze the problem and solution. " +
	"Provide a detailed report that includes:\n" +
	"1. Problem Analysis: Key challenges and insights.\n" +
	"2. Solution Analysis: Efficiency, complexity, and correctness.\n" +
	"3. Edge Cases: Discuss any edge cases considered in the solution.\n" +
	"4. Improvements: Suggestions for optimizing the solution or alternative approaches.\n" +
	"5. Test Cases: Describe the test cases used to validate the solution.\n" +
	"Ensure the report is clear, concise, and well-structured. " +
	"Give your answer in markdown format with appropriate headings and sections."

// CodeTag is the fence tag generated sources are expected under.
const CodeTag = "cpp"

// StatementPrompt asks for a full statement with the eight ### sections.
func StatementPrompt(idea string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a full competitive programming problem based on this idea:\n\n%s\n\n", idea)
	b.WriteString("Use this structure:\n")
	hints := map[problem.Heading]string{
		problem.HeadingStatement:    "A clear, engaging description.",
		problem.HeadingInputFormat:  "Specify input structure.",
		problem.HeadingOutputFormat: "Specify output structure.",
		problem.HeadingConstraints:  "List numerical constraints.",
		problem.HeadingSampleInput:  "Provide one sample input.",
		problem.HeadingSampleOutput: "Provide the corresponding sample output.",
		problem.HeadingTimeLimit:    "e.g., 1 second.",
		problem.HeadingMemoryLimit:  "e.g., 256 MB.",
	}
	for i, h := range problem.Headings() {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, h, hints[h])
	}
	b.WriteString("Start each section with a ### heading and do not add anything else between them. ")
	b.WriteString("Ensure the problem is well-defined and solvable.")
	return Prompt{Role: RoleStatement, System: statementSystem, User: b.String()}
}

// SolutionPrompt asks for a reference solution in a single cpp block.
func SolutionPrompt(p problem.Problem) Prompt {
	user := "Given the following problem statement, generate a C++ solution:\n\n" +
		problem.Serialize(p) + "\n\n" +
		"Provide the code in a single ```" + CodeTag + " code block``` without additional comments."
	return Prompt{Role: RoleSolution, System: solutionSystem, User: user}
}

// GeneratorPrompt asks for a test-case generator modeled on example.
func GeneratorPrompt(p problem.Problem, solution, example string) Prompt {
	user := "Problem Statement:\n\n" + problem.Serialize(p) + "\n\n" +
		"Standard Solution:\n\n" + solution + "\n\n" +
		"Example generator code:\n```" + CodeTag + "\n" + strings.TrimSpace(example) + "\n```"
	return Prompt{Role: RoleGenerator, System: generatorSystem, User: user}
}

// ReportPrompt asks for the markdown analysis report.
func ReportPrompt(p problem.Problem, solution string) Prompt {
	user := "Problem Statement:\n\n" + problem.Serialize(p) + "\n\n" +
		"Standard Solution:\n\n" + solution + "\n\n"
	return Prompt{Role: RoleReport, System: reportSystem, User: user}
}
