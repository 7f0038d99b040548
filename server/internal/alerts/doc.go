// Package alerts evaluates threshold rules against completed analyses and
// delivers webhook notifications to Slack, Teams, PagerDuty or generic HTTP
// targets.
//
// A rule condition names a metric slug, an operator and a threshold:
//
//	icc < 0.75
//	mdc >= 2.5
//	cv_day1_pct > 15
//	icc is_nan
//
// Every matching rule is attached to the analysis. A per-rule cooldown only
// limits webhook delivery.
package alerts
