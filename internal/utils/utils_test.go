package utils

import (
    "regexp"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRandomHex_LengthAndAlphabet(t *testing.T) {
    a, err := RandomHex(4)
    require.NoError(t, err)
    assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), a)

    b, err := RandomHex(4)
    require.NoError(t, err)
    assert.NotEqual(t, a, b)
}

func TestNewAccessToken_Claims(t *testing.T) {
    tok, err := NewAccessToken("secret", 7, "CUSTOMER", time.Hour)
    require.NoError(t, err)

    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
    require.NoError(t, err)
    claims := parsed.Claims.(jwt.MapClaims)
    assert.Equal(t, float64(7), claims["sub"])
    assert.Equal(t, "CUSTOMER", claims["role"])
    assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)
}
