// Package alerts sends Slack notifications from monitoring jobs.
//
// Channels (webhook URLs) and alerters (the username and emoji a message is
// posted as) are kept in two JSON files so scripts can refer to them by id.
// A Notifier posts messages through Slack incoming webhooks, and Monitor
// wraps a job so that a failure or panic raises an alert.
package alerts
