package prompt

// Content kinds the pipeline can generate. Every kind except blog_post is a
// structured opportunity.
const (
	KindCompetition = "competition"
	KindScholarship = "scholarship"
	KindGrant       = "grant"
	KindFellowship  = "fellowship"
	KindInternship  = "internship"
	KindJob         = "job"
	KindConference  = "conference"
	KindWorkshop    = "workshop"
	KindHackathon   = "hackathon"
	KindAward       = "award"
	KindExchange    = "exchange"
	KindBlogPost    = "blog_post"
)

// OpportunityKinds lists the structured kinds, excluding blog_post.
var OpportunityKinds = []string{
	KindCompetition,
	KindScholarship,
	KindGrant,
	KindFellowship,
	KindInternship,
	KindJob,
	KindConference,
	KindWorkshop,
	KindHackathon,
	KindAward,
	KindExchange,
}

func IsValidKind(kind string) bool {
	if kind == KindBlogPost {
		return true
	}
	return IsOpportunityKind(kind)
}

func IsOpportunityKind(kind string) bool {
	for _, k := range OpportunityKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SystemMessage is sent with every generation request regardless of template.
const SystemMessage = `You are a content analyst for an opportunity discovery platform. ` +
	`You extract structured information from web content and rewrite it as original, well-formed articles. ` +
	`You always respond with exactly one JSON object and nothing else: no markdown, no commentary, no code fences.`

// jsonContract is the response shape shared by all templates. The single-JSON-object
// requirement is a hard downstream parsing constraint, not a style preference.
const jsonContract = `Respond with exactly one JSON object and nothing else, using this shape:
{
  "valid": true or false,
  "reason": "only when valid is false: why the content does not qualify",
  "title": "a clear, specific title",
  "excerpt": "a 1-2 sentence summary",
  "content": "the full rewritten article text",
  "deadline": "application or submission deadline if stated, else empty",
  "prize_value": "monetary value or award if stated, else empty",
  "requirements": "eligibility requirements if stated, else empty",
  "location": "location or 'online' if stated, else empty",
  "confidence_score": a number from 0.0 to 1.0 for how confident you are this is a genuine, currently open %s
}`

const opportunityPreamble = `Analyze the following web content and decide whether it describes a genuine, currently open %s.
If it does not (expired, unrelated, a listing index, or promotional filler), set "valid" to false and explain in "reason".
If it does, rewrite it as an original announcement in your own words. Never copy sentences verbatim.

Original title: [original_title]

[matched_content]

`

var kindGuidance = map[string]string{
	KindCompetition: "Focus on what participants must create or do, judging criteria, and the prize structure.",
	KindScholarship: "Focus on the award amount, eligible fields of study, academic level, and citizenship requirements.",
	KindGrant:       "Focus on the funding amount, who can apply (individuals, nonprofits, startups), and what the money may be used for.",
	KindFellowship:  "Focus on the program duration, stipend, host institution, and the profile of candidates sought.",
	KindInternship:  "Focus on the role, whether it is paid, the duration, and required qualifications or enrollment status.",
	KindJob:         "Focus on the role, seniority, compensation if stated, and whether remote work is possible.",
	KindConference:  "Focus on dates, venue, registration cost or funding support, and any call for papers.",
	KindWorkshop:    "Focus on the skills taught, dates, cost, and who the workshop is designed for.",
	KindHackathon:   "Focus on the theme, team requirements, dates, prizes, and whether participation is remote or on-site.",
	KindAward:       "Focus on what achievement is recognized, the nomination process, and the award value.",
	KindExchange:    "Focus on destination, duration, funding coverage (travel, accommodation), and eligibility.",
}

const blogPostTemplate = `Rewrite the following web content as an original blog post for an opportunity discovery platform.
Keep all factual claims, drop promotional language, and write in a neutral, informative tone.
If the content is too thin or incoherent to produce a useful post, set "valid" to false and explain in "reason".

Original title: [original_title]

[matched_content]

`

const genericTemplate = `Analyze the following web content. Extract a title, a short excerpt and the main body text.
Set "valid" to false only when the content is empty, incoherent or purely navigational.

Original title: [original_title]

[matched_content]

`
