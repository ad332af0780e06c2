package resources

import "github.com/stackform-io/stackform/types"

const TypeKeyPair = "key_pair"

// KeyPair defines an SSH key pair registered with the provider. When no
// public key is given a new pair is generated at apply time and the private
// key is recorded as a sensitive attribute.
type KeyPair struct {
	types.ResourceBase `hcl:",remain"`

	KeyName   string            `hcl:"key_name" json:"key_name"`
	PublicKey string            `hcl:"public_key,optional" json:"public_key"`
	Tags      map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned values, set after apply
	ID          string `hcl:"id,optional" json:"id"`
	Fingerprint string `hcl:"fingerprint,optional" json:"fingerprint"`

	// PrivateKey is only populated when the pair was generated during
	// apply, it is sensitive and must not be rendered in plaintext
	PrivateKey string `hcl:"private_key,optional" json:"private_key"`
}
