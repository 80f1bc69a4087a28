package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeEntityID(t *testing.T) {
	tests := []struct {
		name   string
		old    string
		update string
		want   string
	}{
		{"new wins when non-empty", "client1", "client2", "client2"},
		{"empty update keeps old", "client1", "", "client1"},
		{"whitespace update keeps old", "client1", "   ", "client1"},
		{"new set from empty", "", "client7", "client7"},
		{"both empty", "", "", ""},
		{"whitespace survives verbatim when meaningful", "", " client7 ", " client7 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeEntityID(tt.old, tt.update))
		})
	}
}

func TestStateSetEntityID(t *testing.T) {
	st := &State{EntityID: "client1"}
	st.SetEntityID("")
	assert.Equal(t, "client1", st.EntityID)
	st.SetEntityID("client2")
	assert.Equal(t, "client2", st.EntityID)
}

func TestStateAppendConcatenates(t *testing.T) {
	st := &State{}
	st.Append(NewTextContent(RoleUser, "a"))
	st.Append(NewTextContent(RoleAssistant, "b"), NewTextContent(RoleUser, "c"))

	assert.Len(t, st.Messages, 3)
	assert.Equal(t, "a", st.Messages[0].Text())
	assert.Equal(t, "b", st.Messages[1].Text())
	assert.Equal(t, "c", st.Messages[2].Text())
}

func TestWindowMessages(t *testing.T) {
	var msgs []Content
	for i := 0; i < 15; i++ {
		msgs = append(msgs, NewTextContent(RoleUser, string(rune('a'+i))))
	}

	windowed := WindowMessages(msgs, 10)
	assert.Len(t, windowed, 10)
	// Last 10 in original order.
	assert.Equal(t, "f", windowed[0].Text())
	assert.Equal(t, "o", windowed[9].Text())

	// Shorter histories pass through untouched.
	short := msgs[:3]
	assert.Equal(t, short, WindowMessages(short, 10))

	// Disabled window.
	assert.Len(t, WindowMessages(msgs, 0), 15)
}
