package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mp4Head is the start of an ISO base media file (ftyp box), which the
// sniffer recognizes as video/mp4.
var mp4Head = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'}

func TestValidateVideoBySniff(t *testing.T) {
	mime, err := ValidateVideoBySniff("talk.mp4", mp4Head)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", mime)
}

func TestValidateVideoRejectsExtension(t *testing.T) {
	_, err := ValidateVideoBySniff("image.png", mp4Head)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video formats")
}

func TestValidateVideoRejectsHTML(t *testing.T) {
	_, err := ValidateVideoBySniff("page.mp4", []byte("<!DOCTYPE html><html><body>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}

func TestValidateVideoAllowsOctetStreamByExtension(t *testing.T) {
	// Bytes the sniffer cannot classify fall back to the extension check.
	unknownHead := []byte{0x47, 0x9b, 0x11, 0xfe, 0x02, 0x7c, 0xe5, 0x08}
	mime, err := ValidateVideoBySniff("movie.mkv", unknownHead)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mime)
}

func TestValidateVideoRejectsMismatchedContent(t *testing.T) {
	// PNG bytes behind a video extension.
	pngHead := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	_, err := ValidateVideoBySniff("sneaky.mp4", pngHead)
	assert.Error(t, err)
}
