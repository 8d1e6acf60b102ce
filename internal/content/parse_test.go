package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `
<html lang="fr">
<head>
	<title>  Le Climat Change  </title>
	<meta name="description" content="Une étude du climat.">
	<meta name="keywords" content="climat, écologie">
	<script>var x = 1;</script>
</head>
<body>
	<nav>Menu</nav>
	<header>Site Header</header>
	<p>Le climat est un sujet important.</p>
	<footer>Footer text</footer>
</body>
</html>`

func TestParse_ExtractsScalars(t *testing.T) {
	p, err := Parse(sampleHTML)
	require.NoError(t, err)

	assert.Equal(t, "fr", p.Lang)
	assert.Equal(t, "Le Climat Change", p.Title)
	assert.Equal(t, "Une étude du climat.", p.Description)
	assert.Equal(t, "climat, écologie", p.Keywords)
}

func TestParse_RemovesDenylistedElements(t *testing.T) {
	p, err := Parse(sampleHTML)
	require.NoError(t, err)

	assert.NotContains(t, p.Readable, "Menu")
	assert.NotContains(t, p.Readable, "Site Header")
	assert.NotContains(t, p.Readable, "Footer text")
	assert.Contains(t, p.Readable, "climat")
}

func TestParse_EmptyDocument(t *testing.T) {
	p, err := Parse("<html></html>")
	require.NoError(t, err)
	assert.Equal(t, "", p.Title)
	assert.Equal(t, "", p.Description)
}
