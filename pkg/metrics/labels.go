package metrics

import "github.com/prometheus/client_golang/prometheus"

func serviceLabels(service string) prometheus.Labels {
	return prometheus.Labels{"service": normalizeLabel(service)}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
