package internal

import (
	"testing"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "secret")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.NoError(config.Validate())
	req.Equal(8080, config.Port)
	req.Equal(4096, config.MaxBodyLength)
	req.Equal(54*time.Second, config.WsPingInterval)
	req.Equal(IdentityQuery, config.WsIdentity)
	req.Equal(DefaultOrigins, config.Origins())
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)
	valid := Config{WsIdentity: IdentityToken, MaxBodyLength: 10, WsPingInterval: time.Second, WsPongTimeout: 2 * time.Second, CharReplacement: "#"}
	req.NoError(valid.Validate())

	badIdentity := valid
	badIdentity.WsIdentity = "cookie"
	req.Error(badIdentity.Validate())

	badPing := valid
	badPing.WsPingInterval = 3 * time.Second
	req.Error(badPing.Validate())

	badChar := valid
	badChar.CharReplacement = "**"
	req.Error(badChar.Validate())

	// Credentialed CORS needs explicit origins
	wildcard := valid
	wildcard.AllowedOrigins = "http://a.test,*"
	req.Error(wildcard.Validate())

	blank := valid
	blank.AllowedOrigins = " , "
	req.Error(blank.Validate())
}

func TestConfig_Origins_Skips_Blanks(t *testing.T) {
	req := require.New(t)
	config := Config{AllowedOrigins: " http://a.test , ,http://b.test,"}
	req.Equal([]string{"http://a.test", "http://b.test"}, config.Origins())
}
