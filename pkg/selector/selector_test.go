package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	semantic = []string{"header", "footer", "aside", "nav", "main", "section", "article"}
	common   = []string{"div", "span", "a", "p", "ul", "li"}
)

func TestClassifyAndResolveTag(t *testing.T) {
	testCases := []struct {
		name string
		kind TagKind
		want string
	}{
		{"div", TagIntrinsic, "div"},
		{"Button", TagComponent, "Button"},
		{"motion.div", TagIndeterminate, "div"},
		{"svg:path", TagIndeterminate, "div"},
		{"", TagIndeterminate, "div"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind := ClassifyTag(tc.name)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.want, ResolveTag(tc.name, kind))
		})
	}

	assert.Equal(t, "section", ResolveTag("SECTION", TagIntrinsic))
}

func TestAssign(t *testing.T) {
	a := NewAssigner(semantic, common)

	got := []string{}
	for _, tag := range []string{"nav", "div", "div", "div", "img", "img", "nav", "Button"} {
		got = append(got, a.Assign(tag).Selector)
	}

	assert.Equal(t, []string{
		".nav",
		".div_nth-of-type_1",
		".div_nth-of-type_2",
		".div_nth-of-type_3",
		".img",
		".img_nth-of-type_2",
		".nav",
		".Button",
	}, got)
}

func TestAssign_Idempotent(t *testing.T) {
	tags := []string{"header", "div", "span", "a", "a", "section", "ul", "li", "li"}
	a := NewAssigner(semantic, common)

	run := func() []ElementSelector {
		a.Reset()
		out := make([]ElementSelector, 0, len(tags))
		for _, tag := range tags {
			out = append(out, a.Assign(tag))
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestKey(t *testing.T) {
	sel := NewAssigner(semantic, common).Assign("div")
	assert.Equal(t, 1, sel.Ordinal)
	assert.Equal(t, "div_nth-of-type_1", sel.Key())
}
