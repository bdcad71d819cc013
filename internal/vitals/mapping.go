package vitals

// DefaultFieldMappings 未配置映射时的通用监护仪字段
var DefaultFieldMappings = map[string]string{
	"HR":      FieldHR,
	"SpO2":    FieldSpO2,
	"NBP_SYS": FieldSBP,
	"NBP_DIA": FieldDBP,
	"RESP":    FieldRR,
}

// Transform 按映射把原始字段转换为标准字段；RiskFeatures 缺失时补 nil
func Transform(raw map[string]interface{}, mappings map[string]string) map[string]*float64 {
	out := make(map[string]*float64, len(mappings)+len(RiskFeatures))
	for rawField, field := range mappings {
		if v, ok := raw[rawField]; ok {
			out[field] = ParseValue(v)
		}
	}
	for _, f := range RiskFeatures {
		if _, ok := out[f]; !ok {
			out[f] = nil
		}
	}
	return out
}
