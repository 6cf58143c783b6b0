package optrows

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = "-- MySQL dump\n" +
	"INSERT INTO `wp_posts` (`ID`, `post_title`) VALUES (5, 'acm_token_post', 'x', 'no');\n" +
	"INSERT INTO `wp_options` (`option_id`, `option_name`, `option_value`, `autoload`) VALUES\n" +
	"(1, 'siteurl', 'https://example.com', 'yes'),\n" +
	"(2, '_transient_api_token', 'cache', 'no'),\n" +
	"(3, 'acm_provider_credentials', 'a:2:{s:4:\"user\";s:5:\"ad,mi\";s:4:\"pass\";s:3:\"x)y\";}', 'yes'),\n" +
	"(4, 'acm_static_credentials', 'it\\'s a value', 'auto'),\n" +
	"(5, 'wc_session_token', 'sess', 'no'),\n" +
	"(6, 'acm_custom_providers', 'line1\nline2', 'NO');\n" +
	"INSERT INTO `wp_users` (`ID`) VALUES (1);\n"

func TestScan_AllRows(t *testing.T) {
	rows, err := Scan(strings.NewReader(dump), Filter{})
	require.NoError(t, err)
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"acm_token_post",
		"siteurl",
		"_transient_api_token",
		"acm_provider_credentials",
		"acm_static_credentials",
		"wc_session_token",
		"acm_custom_providers",
	}, names)
}

func TestScan_ValuesAndEscapes(t *testing.T) {
	rows, err := Scan(strings.NewReader(dump), Filter{Keywords: []string{"credencia", "CREDENTIALS"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, `a:2:{s:4:"user";s:5:"ad,mi";s:4:"pass";s:3:"x)y";}`, rows[0].Value)
	assert.Equal(t, "yes", rows[0].Autoload)

	assert.Equal(t, "it's a value", rows[1].Value)
	assert.Equal(t, "auto", rows[1].Autoload)
	assert.Equal(t, `(4, 'acm_static_credentials', 'it\'s a value', 'auto')`, rows[1].Raw)
}

func TestScan_SkipTransient(t *testing.T) {
	rows, err := Scan(strings.NewReader(dump), Filter{Keywords: []string{"token"}, SkipTransient: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "acm_token_post", rows[0].Name)
}

func TestScan_MultilineAndCase(t *testing.T) {
	rows, err := Scan(strings.NewReader(dump), Filter{Keywords: []string{"custom"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "line1\nline2", rows[0].Value)
	assert.Equal(t, "no", rows[0].Autoload)
}

func TestScan_DoubledQuotesAndInvalidUTF8(t *testing.T) {
	in := "(10, 'blogname', 'Bob''s \xff shop', 'on')"
	rows, err := Scan(strings.NewReader(in), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob's  shop", rows[0].Value)
}

func TestNames_OnlyOptionsTable(t *testing.T) {
	names, err := Names(strings.NewReader(dump), "wp_options", Filter{SkipTransient: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"siteurl", "acm_provider_credentials", "acm_static_credentials", "acm_custom_providers"}, names)

	names, err = Names(strings.NewReader(dump), "wp2_options", Filter{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFindAndInsert(t *testing.T) {
	rows, err := Scan(strings.NewReader(dump), Filter{})
	require.NoError(t, err)

	row, err := Find(rows, "acm_static_credentials")
	require.NoError(t, err)
	want := "INSERT INTO `wp_options` (`option_id`, `option_name`, `option_value`, `autoload`) VALUES\n" +
		"(4, 'acm_static_credentials', 'it\\'s a value', 'auto');\n"
	assert.Equal(t, want, InsertStatement("wp_options", row))

	_, err = Find(rows, "missing_option")
	assert.True(t, errors.Is(err, ErrNotMatched))

	var buf bytes.Buffer
	require.NoError(t, WriteInserts(&buf, "wp_options", rows[1:3]))
	assert.Equal(t, 2, strings.Count(buf.String(), "INSERT INTO `wp_options`"))
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`plain`:     "plain",
		`a\nb`:      "a\nb",
		`tab\there`: "tab\there",
		`back\\s`:   `back\s`,
		`it''s`:     "it's",
		`quote\"d`:  `quote"d`,
		`trailing\`: `trailing\`,
	}
	for in, want := range cases {
		if got := unquote(in); got != want {
			t.Fatalf("unquote(%q)=%q want %q", in, got, want)
		}
	}
}
