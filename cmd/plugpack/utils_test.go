package plugpack

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestPickString(t *testing.T) {
	local, global := "local", "global"
	empty := ""
	assert.Equal(t, "cli", pickString("cli", &local, &global))
	assert.Equal(t, "local", pickString("", &local, &global))
	assert.Equal(t, "global", pickString("", &empty, &global))
	assert.Equal(t, "", pickString("", nil, nil))
}

func TestPickInt(t *testing.T) {
	local, global := 3, 9
	assert.Equal(t, 5, pickInt(5, &local, &global))
	assert.Equal(t, 3, pickInt(0, &local, &global))
	assert.Equal(t, 9, pickInt(0, nil, &global))
	assert.Equal(t, 0, pickInt(0, nil, nil))
}

func TestPickBool(t *testing.T) {
	yes, no := true, false
	assert.True(t, pickBool(true, &no, &no))
	assert.False(t, pickBool(false, &no, &yes), "local wins over global")
	assert.True(t, pickBool(false, nil, &yes))
	assert.False(t, pickBool(false, nil, nil))
}

func TestPickFlagBool_ExplicitFalseWins(t *testing.T) {
	var v bool
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().BoolVar(&v, "default-excludes", true, "")

	yes := true
	assert.True(t, pickFlagBool(cmd, "default-excludes", v, nil, nil, true), "default applies when nothing is set")
	assert.True(t, pickFlagBool(cmd, "default-excludes", v, &yes, nil, false))

	assert.NoError(t, cmd.Flags().Set("default-excludes", "false"))
	assert.False(t, pickFlagBool(cmd, "default-excludes", v, &yes, &yes, true))
}

func TestPickStrings(t *testing.T) {
	assert.Equal(t, []string{"a"}, pickStrings([]string{"a"}, []string{"b"}, []string{"c"}))
	assert.Equal(t, []string{"b"}, pickStrings(nil, []string{"b"}, []string{"c"}))
	assert.Equal(t, []string{"c"}, pickStrings(nil, nil, []string{"c"}))
	assert.Nil(t, pickStrings(nil, nil, nil))
}
