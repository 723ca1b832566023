package interview

import (
	"strings"

	"github.com/NishanthN27/Final-Year/graph"
)

// CodeMalformedTopic is the ConfigError code for a plan token that looks
// like a deep dive but does not parse.
const CodeMalformedTopic = "MALFORMED_TOPIC"

const deepDivePrefix = "deep_dive:"

// TopicKind tells how a plan token is served.
type TopicKind string

const (
	// TopicStage tokens name an interview stage ("technical", "behavioral")
	// and are served from the question bank.
	TopicStage TopicKind = "stage"

	// TopicDeepDive tokens name one resume item and get a generated
	// question about it.
	TopicDeepDive TopicKind = "deep_dive"
)

// Topic is a parsed plan token.
type Topic struct {
	Token    string
	Kind     TopicKind
	ItemType string
	ItemName string
}

// DeepDiveToken builds the plan token for a deep dive into one resume item,
// for example DeepDiveToken("project", "Payments API").
func DeepDiveToken(itemType, itemName string) string {
	return deepDivePrefix + itemType + ":" + itemName
}

// ParseTopic classifies a plan token. A token starting with "deep_dive:"
// must have exactly two non-empty components after the prefix; anything
// else is a ConfigError carrying the token.
func ParseTopic(token string) (Topic, error) {
	if strings.TrimSpace(token) == "" {
		return Topic{}, &graph.ConfigError{Code: CodeMalformedTopic, Subject: token, Message: "empty topic token"}
	}
	if !strings.HasPrefix(token, deepDivePrefix) {
		return Topic{Token: token, Kind: TopicStage}, nil
	}
	parts := strings.Split(strings.TrimPrefix(token, deepDivePrefix), ":")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return Topic{}, &graph.ConfigError{
			Code:    CodeMalformedTopic,
			Subject: token,
			Message: "deep dive token must look like deep_dive:<item_type>:<item_name>",
		}
	}
	return Topic{
		Token:    token,
		Kind:     TopicDeepDive,
		ItemType: strings.TrimSpace(parts[0]),
		ItemName: strings.TrimSpace(parts[1]),
	}, nil
}
