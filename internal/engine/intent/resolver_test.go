package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)
	require.NotNil(t, r)

	t.Run("every intent has a capability", func(t *testing.T) {
		for _, def := range definitions {
			c, ok := r.Capability(def.tag)
			assert.True(t, ok, "intent %s", def.tag)
			assert.NotEmpty(t, c)
		}
		for _, ov := range globalOverrides {
			c, ok := r.Capability(ov.Tag)
			assert.True(t, ok)
			assert.Equal(t, CapabilityGlobal, c)
		}
	})
}

func TestResolve_GlobalOverrides(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	t.Run("menu forces a reset", func(t *testing.T) {
		in := r.Resolve("menu")
		require.NotNil(t, in)
		assert.Equal(t, TagShowMenu, in.Tag)
		assert.True(t, in.ForceReset)
	})

	t.Run("overrides match exactly, not as substrings", func(t *testing.T) {
		in := r.Resolve("the menu at the canteen")
		if in != nil {
			assert.NotEqual(t, TagShowMenu, in.Tag)
		}
	})

	t.Run("back and help do not force reset", func(t *testing.T) {
		for _, text := range []string{"back", "help"} {
			in := r.Resolve(text)
			require.NotNil(t, in)
			assert.False(t, in.ForceReset)
		}
	})
}

func TestResolve_Precedence(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	t.Run("exact keyword wins over substring of an earlier intent", func(t *testing.T) {
		// "fee" is an exact keyword; must not be caught by a substring
		// scan of something declared earlier.
		in := r.Resolve("fee")
		require.NotNil(t, in)
		assert.Equal(t, TagFees, in.Tag)
	})

	t.Run("substring match on longer text", func(t *testing.T) {
		in := r.Resolve("what homework does my kid have today")
		require.NotNil(t, in)
		assert.Equal(t, TagHomework, in.Tag)
	})

	t.Run("first declared wins when several substrings match", func(t *testing.T) {
		in := r.Resolve("homework before the exam")
		require.NotNil(t, in)
		assert.Equal(t, TagHomework, in.Tag)
	})
}

func TestResolve_Normalization(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		in := r.Resolve("  HOMEWORK  ")
		require.NotNil(t, in)
		assert.Equal(t, TagHomework, in.Tag)
	})

	t.Run("escaped punctuation is stripped", func(t *testing.T) {
		in := r.Resolve(`fees\?`)
		require.NotNil(t, in)
		assert.Equal(t, TagFees, in.Tag)
	})

	t.Run("empty text resolves to nothing", func(t *testing.T) {
		assert.Nil(t, r.Resolve("   "))
	})
}

func TestResolve_Pure(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	first := r.Resolve("attendance")
	second := r.Resolve("attendance")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Tag, second.Tag)
	assert.Equal(t, first.ForceReset, second.ForceReset)
}

func TestResolve_Unmatched(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	assert.Nil(t, r.Resolve("what are the school timings on saturday"))
}

func TestCapabilities(t *testing.T) {
	r, err := NewResolver()
	require.NoError(t, err)

	cases := map[Tag]Capability{
		TagShowMenu:         CapabilityGlobal,
		TagHomework:         CapabilityParent,
		TagAdmissionForm:    CapabilityPublic,
		TagFeedbackForm:     CapabilityPublic,
		TagAppointmentForm:  CapabilityParent,
		TagStudentReport:    CapabilityTeacher,
		TagChangeLanguageHi: CapabilityPublic,
	}
	for tag, want := range cases {
		got, ok := r.Capability(tag)
		require.True(t, ok, "tag %s", tag)
		assert.Equal(t, want, got, "tag %s", tag)
	}
}
