package oteladapter

import (
	"fmt"

	otelattribute "go.opentelemetry.io/otel/attribute"
)

func toOTELKeyValue(k string, v any) otelattribute.KeyValue {
	switch vv := v.(type) {
	case bool:
		return otelattribute.Bool(k, vv)
	case []bool:
		return otelattribute.BoolSlice(k, vv)
	case int:
		return otelattribute.Int(k, vv)
	case []int:
		return otelattribute.IntSlice(k, vv)
	case int64:
		return otelattribute.Int64(k, vv)
	case []int64:
		return otelattribute.Int64Slice(k, vv)
	case float64:
		return otelattribute.Float64(k, vv)
	case []float64:
		return otelattribute.Float64Slice(k, vv)
	case []string:
		return otelattribute.StringSlice(k, vv)
	default:
		return otelattribute.String(k, toOTELString(v))
	}
}

func toOTELString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []byte:
		return string(vv)
	case fmt.Stringer:
		return vv.String()
	case error:
		return vv.Error()
	default:
		return fmt.Sprint(v)
	}
}
