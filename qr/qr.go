package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/gif"

	qrcode "github.com/skip2/go-qrcode"
)

// ImageTag renders data as a QR code embedded in an HTML img tag carrying a
// base64 GIF data uri, ready to be injected in a page. Pure, no side effects.
func ImageTag(data string) (string, error) {
	if len(data) <= 0 {
		return "", fmt.Errorf("missing data to encode")
	}

	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %s", err)
	}

	buf := new(bytes.Buffer)
	if err := gif.Encode(buf, code.Image(256), nil); err != nil {
		return "", fmt.Errorf("failed to render qr code image: %s", err)
	}

	return fmt.Sprintf(
		`<img src="data:image/gif;base64,%s">`,
		base64.StdEncoding.EncodeToString(buf.Bytes()),
	), nil
}
