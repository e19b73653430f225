package qr_test

import (
	"strings"
	"testing"

	"github.com/ark-network/paywall/qr"
	"github.com/stretchr/testify/require"
)

func TestImageTag(t *testing.T) {
	invoice := "lnbcrt5u1pn0example000invoice000text000for000testing"

	tag, err := qr.ImageTag(invoice)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(tag, `<img src="data:image/gif;base64,`))
	require.True(t, strings.HasSuffix(tag, `">`))

	again, err := qr.ImageTag(invoice)
	require.NoError(t, err)
	require.Equal(t, tag, again)
}

func TestImageTagMissingData(t *testing.T) {
	tag, err := qr.ImageTag("")
	require.EqualError(t, err, "missing data to encode")
	require.Empty(t, tag)
}
