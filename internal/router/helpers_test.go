package router_test

import "context"

type nopPinger struct{}

func (nopPinger) PingContext(context.Context) error { return nil }
