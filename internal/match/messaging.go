package match

import (
	"regexp"
	"strings"

	"codenerd/internal/graph"
)

// MessagingStrategy matches publish/consume connections by the
// queue/topic name, which it extracts the same way HTTPStrategy
// extracts a path: the first quoted string literal in the code
// snippet. Unlike HTTP there is no verb to compare, so an exact topic
// match alone is scored highly.
type MessagingStrategy struct{}

var topicLiteral = regexp.MustCompile(`"([^"]*)"`)

func (MessagingStrategy) Similarity(out, in graph.Connection) (float64, bool) {
	outTopic, outOK := firstTopic(out.CodeSnippet)
	inTopic, inOK := firstTopic(in.CodeSnippet)
	if !outOK || !inOK {
		return 0, false
	}
	if !strings.EqualFold(outTopic, inTopic) {
		return 0, false
	}
	return 0.85, true
}

func (MessagingStrategy) Rationale() string {
	return "matching queue/topic name"
}

func firstTopic(code string) (string, bool) {
	m := topicLiteral.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}
