// Package hsm loads the signing secret from a PKCS#11 token such as SoftHSM.
package hsm

import "fmt"

type Config struct {
	LibPath  string
	SlotID   uint
	PIN      string
	KeyLabel string
}

func (c Config) validate() error {
	switch {
	case c.LibPath == "":
		return fmt.Errorf("pkcs11 library path is required")
	case c.KeyLabel == "":
		return fmt.Errorf("pkcs11 key label is required")
	}
	return nil
}
