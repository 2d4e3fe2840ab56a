/*
Package observability provides helpers around domain.LifecycleHooks.

Compose fans one event out to several hook sets, so a renderer can feed
Prometheus counters and a debug logger at the same time. DebugHooks logs
every lifecycle event at debug level.
*/
package observability
