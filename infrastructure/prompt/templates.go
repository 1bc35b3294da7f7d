package prompt

// Built-in template names.
const (
	PlanGeneration       = "plan_generation"
	PlanRefinement       = "plan_refinement"
	AdaptiveGeneration   = "adaptive_generation"
	NextStep             = "next_step"
	StepReward           = "step_reward"
	CompletionCheck      = "completion_check"
	ConstraintExtraction = "constraint_extraction"
	Verification         = "verification"
	SolutionSelection    = "solution_selection"
	AlgorithmSelection   = "algorithm_selection"
	AlgorithmSwitch      = "algorithm_switch"
)

// System message names.
const (
	SystemConstraint   = "system_constraint"
	SystemVerification = "system_verification"
	SystemSelection    = "system_selection"
)

var builtins = map[string]string{
	PlanGeneration: `Create a detailed plan to solve the following problem. Your plan should be step-by-step, clear, and address all aspects of the problem.

Problem statement:
{{.Problem}}

Constraints to consider:
{{.Constraints}}

Your plan:`,

	PlanRefinement: `I have a plan to solve a problem, along with feedback on its weaknesses. Improve the plan using the feedback.

Problem statement:
{{.Problem}}

Constraints to consider:
{{.Constraints}}

Current plan:
{{.Plan}}

Feedback on the current plan:
{{.Feedback}}

Produce an improved plan that addresses the feedback while still solving the problem and satisfying the constraints.

Improved plan:`,

	AdaptiveGeneration: `Create a detailed plan to solve the following problem. Your plan should be step-by-step, clear, and address all aspects of the problem.

Problem statement:
{{.Problem}}

Constraints to consider:
{{.Constraints}}

The strongest plan so far scored {{.BestScore}} with this feedback:
{{.BestFeedback}}

The weakest plan so far scored {{.WorstScore}} with this feedback:
{{.WorstFeedback}}

Produce a new plan that keeps what made the strongest plan work and avoids what weakened the weakest one.

Your plan:`,

	NextStep: `You are an expert assistant for generating a step-by-step plan to solve a given question. Given the problem and any intermediate steps, output only the next step in the plan. Ensure that the next action helps in moving toward the correct plan to solve the given question. Do not provide the full plan. Keep responses concise, focusing solely on the immediate next step that is most effective in progressing toward the correct plan.

<problem>
{{.Problem}}
</problem>
<intermediate_steps>
{{.Steps}}
</intermediate_steps>`,

	StepReward: `Provide a reward score between -100 and 100 for the quality of the provided plan steps, using strict evaluation standards. Ensure the reward reflects how effectively the plan contributes to progressing toward the correct solution.

Problem Statement:
{{.Problem}}

Plan:
{{.Plan}}

Consider the following constraints while evaluating:
{{.Constraints}}

Provide feedback in the following format:
[Step-by-step reasoning for the reward score]
Score: [Strictly provide an integer reward score between -100 and 100]`,

	CompletionCheck: `You are an assistant tasked with verifying if the final, complete plan to solve the given question has been achieved within the intermediate steps. Output only '1' if the intermediate steps contain the full solution needed to solve the question. If the full plan has not yet been reached, output only '0'. Provide no additional commentary. Return exclusively '1' or '0'.

<problem>
{{.Problem}}
</problem>
<intermediate_steps>
{{.Steps}}
</intermediate_steps>`,

	ConstraintExtraction: `Extract the discrete constraints that any valid solution to the following problem must satisfy. List one constraint per line, each prefixed with "- ". Do not add commentary before or after the list.

Problem statement:
{{.Problem}}

Constraints:`,

	Verification: `Evaluate how well the following plan solves the problem while satisfying every constraint. Be strict: penalize missing steps, violated constraints, and vagueness.

Problem statement:
{{.Problem}}

Constraints:
{{.Constraints}}

Plan:
{{.Plan}}

Provide feedback in the following format:
[Detailed feedback on strengths and weaknesses]
Score: [an integer between 0 and 100]`,

	SolutionSelection: `Several candidate solutions to the same problem are listed below with their verification results. Pick the best one.

{{range .Solutions}}Solution {{.Number}}:
{{.Text}}

Verification of solution {{.Number}}:
{{.Verification}}

{{end}}Answer with the number of the best solution and a short justification, e.g. "Solution 2 is best because ...".`,

	AlgorithmSelection: `You are choosing a search strategy for solving the problem below. The available strategies are:
{{range .Algorithms}}- {{.}}
{{end}}
Problem statement:
{{.Problem}}

Answer with exactly one strategy name from the list, nothing else.`,

	AlgorithmSwitch: `A search strategy has already been run on the problem below. Decide which strategy should run next. The available strategies are:
{{range .Algorithms}}- {{.}}
{{end}}
Problem statement:
{{.Problem}}

Last strategy used: {{.Current}}
Best plan so far (score {{.Score}}):
{{.Plan}}

If no other strategy is likely to beat this result, answer with the last strategy's name. Otherwise answer with the name of the strategy to try next. Answer with exactly one strategy name from the list, nothing else.`,

	SystemConstraint:   `You are a careful analyst who extracts explicit and implicit constraints from problem statements. You never invent constraints that are not implied by the problem.`,
	SystemVerification: `You are a strict evaluator of solution plans. You reward completeness, correctness, and constraint satisfaction, and you always end your response with a "Score:" line.`,
	SystemSelection:    `You are a judge comparing candidate solutions. You weigh verification results over style and always name exactly one winner.`,
}
