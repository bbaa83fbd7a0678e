// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/bloomandco/automation/pkg/capabilities/email"
	"github.com/bloomandco/automation/pkg/capabilities/httpreq"
	"github.com/bloomandco/automation/pkg/capabilities/logcap"
	"github.com/bloomandco/automation/pkg/capabilities/record"
	"github.com/bloomandco/automation/pkg/capabilities/tag"
	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/gateway"
)

// NewCapabilityRegistry builds the registry with every native capability
// wired to the commerce gateway client.
func NewCapabilityRegistry(log *slog.Logger, gw *gateway.Client) *capability.Registry {
	reg := capability.NewRegistry(log)

	reg.Register(email.NewFactory(gw))
	reg.Register(tag.NewFactory(gw))
	reg.Register(record.NewFactory(gw))
	reg.Register(httpreq.NewFactory())
	reg.Register(logcap.NewFactory())

	return reg
}
