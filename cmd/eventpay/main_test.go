package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{{"serve"}, {"sweep"}, {"invoice", "create"}, {"invoice", "resend"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("no-poller"))
	assert.NotNil(t, serve.Flags().Lookup("sync-dispatch"))
}

func TestInvoiceCreateRequiresParticipantID(t *testing.T) {
	create, _, err := newRootCommand().Find([]string{"invoice", "create"})
	require.NoError(t, err)
	assert.Error(t, create.Args(create, nil))
	assert.NoError(t, create.Args(create, []string{"p-1"}))
}

func TestUnconfiguredGatewayRefusesCalls(t *testing.T) {
	var gw gateway = unconfiguredGateway{}

	_, err := gw.CreateInvoice(context.Background(), xendit.InvoiceRequest{ExternalID: "p-1"})
	assert.ErrorIs(t, err, errGatewayNotConfigured)

	_, err = gw.GetInvoiceStatus(context.Background(), "inv-1")
	assert.ErrorIs(t, err, errGatewayNotConfigured)
}
