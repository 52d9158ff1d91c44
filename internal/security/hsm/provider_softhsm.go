//go:build softhsm

package hsm

import (
	"context"
	"fmt"

	"github.com/miekg/pkcs11"

	"github.com/alovak/securepay/internal/security"
)

// SoftHSMProvider reads the master secret from a PKCS#11 token at startup.
// The object must be a generic secret key marked extractable and not sensitive;
// the value is read once and the session closed again.
type SoftHSMProvider struct {
	cfg Config
}

func New(cfg Config) security.SecretProvider {
	return &SoftHSMProvider{cfg: cfg}
}

func (p *SoftHSMProvider) Secret(ctx context.Context) ([]byte, error) {
	if err := p.cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p11 := pkcs11.New(p.cfg.LibPath)
	if p11 == nil {
		return nil, fmt.Errorf("load pkcs11 lib %s failed", p.cfg.LibPath)
	}
	defer p11.Destroy()
	if err := p11.Initialize(); err != nil {
		return nil, fmt.Errorf("pkcs11 initialize: %w", err)
	}
	defer p11.Finalize()

	sess, err := p11.OpenSession(p.cfg.SlotID, pkcs11.CKF_SERIAL_SESSION)
	if err != nil {
		return nil, fmt.Errorf("pkcs11 open session: %w", err)
	}
	defer p11.CloseSession(sess)
	if err := p11.Login(sess, pkcs11.CKU_USER, p.cfg.PIN); err != nil {
		return nil, fmt.Errorf("pkcs11 login: %w", err)
	}
	defer p11.Logout(sess)

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, p.cfg.KeyLabel),
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_GENERIC_SECRET),
	}
	if err := p11.FindObjectsInit(sess, template); err != nil {
		return nil, fmt.Errorf("pkcs11 find init: %w", err)
	}
	objs, _, err := p11.FindObjects(sess, 2)
	_ = p11.FindObjectsFinal(sess)
	if err != nil {
		return nil, fmt.Errorf("pkcs11 find: %w", err)
	}
	switch len(objs) {
	case 0:
		return nil, fmt.Errorf("secret not found by label=%s", p.cfg.KeyLabel)
	case 1:
	default:
		return nil, fmt.Errorf("label=%s matches more than one secret", p.cfg.KeyLabel)
	}

	attrs, err := p11.GetAttributeValue(sess, objs[0], []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_VALUE, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("pkcs11 read value: %w", err)
	}
	if len(attrs) == 0 || len(attrs[0].Value) == 0 {
		return nil, fmt.Errorf("secret label=%s has no readable value", p.cfg.KeyLabel)
	}
	out := make([]byte, len(attrs[0].Value))
	copy(out, attrs[0].Value)
	security.Wipe(attrs[0].Value)
	return out, nil
}

var _ security.SecretProvider = (*SoftHSMProvider)(nil)
