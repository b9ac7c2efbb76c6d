// Package metrics holds the Prometheus collectors of the annotator.
package metrics

const (
	namespace = "blockinsight7000"

	unknownLabel = "unknown"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func orUnknown(v string) string {
	if v == "" {
		return unknownLabel
	}
	return v
}
