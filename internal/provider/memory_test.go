package provider

import (
	"context"
	"testing"

	"github.com/stackform-io/stackform/resources"
	"github.com/stretchr/testify/require"
)

func TestMemoryAssignsIDs(t *testing.T) {
	m := NewMemory()

	n := &resources.Network{CIDRBlock: "10.0.0.0/16"}
	n.Meta.ID = "resource.network.main"
	n.Meta.Type = resources.TypeNetwork

	require.NoError(t, m.Create(context.Background(), n))
	require.Equal(t, "mem-network-1", n.ID)

	n2 := &resources.Network{CIDRBlock: "10.1.0.0/16"}
	n2.Meta.ID = "resource.network.second"
	n2.Meta.Type = resources.TypeNetwork

	require.NoError(t, m.Create(context.Background(), n2))
	require.Equal(t, "mem-network-2", n2.ID)

	require.Equal(t, 2, m.CreatedCount())
}

func TestMemoryAssignsInstanceAddresses(t *testing.T) {
	m := NewMemory()

	i := &resources.Instance{Image: "ami-12345678", Size: "t2.micro"}
	i.Meta.ID = "resource.instance.web"
	i.Meta.Type = resources.TypeInstance

	require.NoError(t, m.Create(context.Background(), i))

	require.Equal(t, "mem-instance-1", i.ID)
	require.Equal(t, "10.0.0.1", i.PrivateIP)
	require.Equal(t, "203.0.113.1", i.PublicIP)
}

func TestMemoryGeneratesKeyPair(t *testing.T) {
	m := NewMemory()

	kp := &resources.KeyPair{KeyName: "deploy"}
	kp.Meta.ID = "resource.key_pair.main"
	kp.Meta.Type = resources.TypeKeyPair

	require.NoError(t, m.Create(context.Background(), kp))

	require.NotEmpty(t, kp.PublicKey)
	require.Contains(t, kp.PrivateKey, "BEGIN RSA PRIVATE KEY")
	require.NotEmpty(t, kp.Fingerprint)
}

func TestMemoryFingerprintsSuppliedKey(t *testing.T) {
	m := NewMemory()

	kp := &resources.KeyPair{KeyName: "deploy"}
	kp.Meta.ID = "resource.key_pair.a"
	kp.Meta.Type = resources.TypeKeyPair
	require.NoError(t, m.Create(context.Background(), kp))

	imported := &resources.KeyPair{KeyName: "imported", PublicKey: kp.PublicKey}
	imported.Meta.ID = "resource.key_pair.b"
	imported.Meta.Type = resources.TypeKeyPair
	require.NoError(t, m.Create(context.Background(), imported))

	require.Equal(t, kp.Fingerprint, imported.Fingerprint)
	require.Empty(t, imported.PrivateKey)
}

func TestMemoryDeleteRemoves(t *testing.T) {
	m := NewMemory()

	n := &resources.Network{CIDRBlock: "10.0.0.0/16"}
	n.Meta.ID = "resource.network.main"
	n.Meta.Type = resources.TypeNetwork

	require.NoError(t, m.Create(context.Background(), n))
	require.NoError(t, m.Delete(context.Background(), n))

	require.Equal(t, 0, m.CreatedCount())
}

func TestMemoryCreateFailsOnCancelledContext(t *testing.T) {
	m := NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &resources.Network{CIDRBlock: "10.0.0.0/16"}
	n.Meta.Type = resources.TypeNetwork

	require.Error(t, m.Create(ctx, n))
}

func TestRegistryRegistersAndResolves(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMemory())

	p, err := r.Get("memory")
	require.NoError(t, err)
	require.Equal(t, "memory", p.Name())

	_, err = r.Get("aws")
	require.Error(t, err)
}
