package search

import (
	"fmt"
	"strings"
)

// roleKeywords drive the query variations, ordered by how often each role
// owns inbound hiring conversations.
var roleKeywords = []string{
	"Recruiter",
	"Talent Acquisition",
	"HR Manager",
	"Human Resources",
	"People Operations",
}

// quoteRole wraps multi-word keywords so engines treat them as phrases.
func quoteRole(keyword string) string {
	if strings.ContainsRune(keyword, ' ') {
		return `"` + keyword + `"`
	}
	return keyword
}

// roleGroup renders keywords as an OR group for a single query.
func roleGroup(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = quoteRole(k)
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

// Queries builds the search query variations for a company, in fixed
// priority order. The collector walks them until enough unique candidates
// accumulate or the list is exhausted. Company-scoped variations come
// first; domain-scoped ones catch profiles that omit the company name.
func Queries(company, domain string) []string {
	return []string{
		fmt.Sprintf(`site:linkedin.com/in "%s" %s`, company, roleGroup(roleKeywords[:2])),
		fmt.Sprintf(`site:linkedin.com/in "%s" %s`, company, roleGroup(roleKeywords[2:])),
		fmt.Sprintf(`site:linkedin.com/in "%s" ("Head of" OR "Director") (HR OR Recruiting)`, company),
		fmt.Sprintf(`site:linkedin.com/in "%s" %s`, domain, quoteRole(roleKeywords[0])),
		fmt.Sprintf(`site:linkedin.com/in "%s" %s`, domain, quoteRole(roleKeywords[1])),
	}
}
