package relevance

import "blogfeed/internal/model"

// categoryKeywords is the exhaustive inclusion table: a post survives the
// filter only if its text contains at least one keyword for its category.
// Adding a category here is a compile-visible change, not a stringly one.
var categoryKeywords = map[model.Category][]string{
	model.CategoryAIML: {
		"ai", "machine learning", "deep learning", "neural", "llm", "gpt",
		"transformer", "model", "inference", "training", "embedding",
		"artificial intelligence", "nlp", "computer vision",
	},
	model.CategoryWebDev: {
		"javascript", "typescript", "react", "frontend", "backend", "css",
		"html", "web", "browser", "node", "framework", "api",
	},
	model.CategoryCloudInfra: {
		"kubernetes", "docker", "container", "cloud", "aws", "gcp", "azure",
		"terraform", "infrastructure", "serverless", "deploy", "devops",
	},
	model.CategoryDatabases: {
		"database", "sql", "postgres", "postgresql", "mysql", "redis",
		"mongodb", "query", "index", "schema", "replication", "sharding",
	},
	model.CategorySecurity: {
		"security", "vulnerability", "exploit", "encryption", "authentication",
		"tls", "oauth", "breach", "malware", "zero-day", "csrf", "xss",
	},
	model.CategoryEngineering: {
		"engineering", "architecture", "performance", "scaling", "design",
		"reliability", "testing", "refactoring", "microservice", "distributed",
	},
}

// qualityIndicators signal technical depth; the high-quality filter requires
// at least one of them.
var qualityIndicators = []string{
	"how we", "deep dive", "architecture", "lessons learned", "postmortem",
	"benchmark", "performance", "at scale", "case study", "under the hood",
	"implementation", "internals",
}

// spamPhrases disqualify a post from the high-quality views outright.
var spamPhrases = []string{
	"click here", "buy now", "limited time", "sponsored", "advertisement",
	"sign up now", "free trial", "you won't believe", "top 10 reasons",
}

// engagementTerms feed the trending score; each match adds two points.
var engagementTerms = []string{
	"launch", "release", "announcing", "introducing", "open source",
	"breaking", "new version", "now available",
}
