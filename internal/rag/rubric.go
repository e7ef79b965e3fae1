package rag

// rubric is a per-intent scoring instruction set for the re-ranker: a persona
// line plus priority tiers ordered most- to least-important.
type rubric struct {
	persona string
	tiers   []string
}

var rubrics = map[Intent]rubric{
	IntentFinance: {
		persona: "You are a financial analyst selecting source material for a finance report.",
		tiers: []string{
			"exact figures, amounts, budgets, and financial KPIs",
			"invoices, payments, costs, and revenue discussions",
			"financial context such as forecasts and comparisons",
			"general business information with financial relevance",
		},
	},
	IntentLegal: {
		persona: "You are a legal reviewer selecting source material for a contract analysis.",
		tiers: []string{
			"contract clauses, obligations, and liabilities",
			"deadlines, terms, renewals, and penalties",
			"named parties, signatures, and approvals",
			"general context around agreements",
		},
	},
	IntentProjectManagement: {
		persona: "You are a project manager selecting source material for a status review.",
		tiers: []string{
			"deliverables, milestones, and deadlines",
			"task assignments, owners, and responsibilities",
			"risks, blockers, and open decisions",
			"general project context",
		},
	},
	IntentBusinessAnalysis: {
		persona: "You are a business analyst selecting source material for a strategy assessment.",
		tiers: []string{
			"requirements, processes, and stakeholder needs",
			"metrics, market data, and competitive information",
			"opportunities, risks, and trade-off discussions",
			"general organizational context",
		},
	},
	IntentGeneral: {
		persona: "You are a research assistant selecting the most relevant supporting documents.",
		tiers: []string{
			"content that directly answers or addresses the queries",
			"content that provides essential background for the queries",
			"related content that adds useful detail",
			"tangential content",
		},
	},
}

// rubricFor returns the rubric for intent, falling back to the GENERAL rubric
// for any category without a dedicated one.
func rubricFor(intent Intent) rubric {
	if r, ok := rubrics[intent]; ok {
		return r
	}
	return rubrics[IntentGeneral]
}
