package pms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"booking.created","booking_id":"b-1"}`)
	secret := "wh-secret"
	signature := Sign(body, secret)

	t.Run("valid signature accepted", func(t *testing.T) {
		assert.True(t, VerifySignature(body, signature, secret))
	})

	t.Run("flipping one signature byte rejects", func(t *testing.T) {
		flipped := []byte(signature)
		if flipped[0] == 'a' {
			flipped[0] = 'b'
		} else {
			flipped[0] = 'a'
		}
		assert.False(t, VerifySignature(body, string(flipped), secret))
	})

	t.Run("flipping one body byte rejects", func(t *testing.T) {
		tampered := make([]byte, len(body))
		copy(tampered, body)
		tampered[len(tampered)-2] ^= 0x01
		assert.False(t, VerifySignature(tampered, signature, secret))
	})

	t.Run("wrong secret rejects", func(t *testing.T) {
		assert.False(t, VerifySignature(body, signature, "other-secret"))
	})

	t.Run("empty signature rejects", func(t *testing.T) {
		assert.False(t, VerifySignature(body, "", secret))
	})

	t.Run("empty secret skips verification", func(t *testing.T) {
		assert.True(t, VerifySignature(body, "", ""))
		assert.True(t, VerifySignature(body, "garbage", ""))
	})
}
