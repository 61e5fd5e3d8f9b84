package harness

import (
	"time"

	"github.com/BaSui01/agentweave/types"
)

// TestCase 一个 agent / workflow 测试用例
type TestCase struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Input       []types.Message   `json:"input_messages"`
	Expect      []Predicate       `json:"expected_output_predicates,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewTestCase creates a case with a single user message as input.
func NewTestCase(name, prompt string, expect ...Predicate) TestCase {
	return TestCase{
		Name:   name,
		Input:  []types.Message{types.NewUserMessage(prompt)},
		Expect: expect,
	}
}

// SampleCases 常见场景的预置用例
func SampleCases() []TestCase {
	return []TestCase{
		{
			Name:        "simple_blog_request",
			Description: "Test simple blog post generation",
			Input:       []types.Message{types.NewUserMessage("Write a blog post about Python programming")},
			Expect:      []Predicate{ContainsAny("blog", "python", "programming")},
		},
		{
			Name:        "complex_analysis",
			Description: "Test complex analysis request",
			Input:       []types.Message{types.NewUserMessage("Analyze the pros and cons of microservices architecture")},
			Expect:      []Predicate{ContainsAny("pros", "cons", "microservices")},
		},
		{
			Name:        "creative_writing",
			Description: "Test creative writing capabilities",
			Input:       []types.Message{types.NewUserMessage("Write a creative story about space exploration")},
			Expect:      []Predicate{ContainsAny("space", "story")},
		},
	}
}
