package main

import (
	"fmt"

	webpushsvc "github.com/koda-tec/sistema-escolar/services/push"
)

var generateVAPIDKeysFunc = webpushsvc.GenerateVAPIDKeys // mockable

// vapidKeys prints a new key pair in the form of config env vars.
func (cli *commandLine) vapidKeys() error {
	pub, priv, err := generateVAPIDKeysFunc()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s=%s\n", cli.conf.EnvVar("push.vapidPublicKey"), pub)
	_, _ = fmt.Fprintf(cli.out, "%s=%s\n", cli.conf.EnvVar("push.vapidPrivateKey"), priv)
	return nil
}
