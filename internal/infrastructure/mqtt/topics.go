package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every Land Area topic.
const TopicPrefix = "landarea"

// Topics provides builders for Land Area MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.ConvertResponse("req-1")
//	// Returns: "landarea/response/convert/req-1"
type Topics struct{}

// ConvertRequest returns the topic a client publishes a conversion request to.
//
// Example: landarea/request/convert/req-1
func (Topics) ConvertRequest(requestID string) string {
	return fmt.Sprintf("%s/request/convert/%s", TopicPrefix, requestID)
}

// ConvertResponse returns the topic the reply to a request is published on.
//
// Example: landarea/response/convert/req-1
func (Topics) ConvertResponse(requestID string) string {
	return fmt.Sprintf("%s/response/convert/%s", TopicPrefix, requestID)
}

// AllConvertRequests matches every conversion request.
//
// Pattern: landarea/request/convert/+
func (Topics) AllConvertRequests() string {
	return fmt.Sprintf("%s/request/convert/+", TopicPrefix)
}

// ConverterHealth returns the retained health topic of the conversion bridge.
//
// Example: landarea/health/converter
func (Topics) ConverterHealth() string {
	return fmt.Sprintf("%s/health/converter", TopicPrefix)
}

// SystemStatus returns the online/offline status topic, also used for the LWT.
//
// Example: landarea/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// RequestIDFromTopic extracts the last level of a request topic.
// It returns "" when topic is not a conversion request topic.
func (Topics) RequestIDFromTopic(topic string) string {
	id, ok := strings.CutPrefix(topic, TopicPrefix+"/request/convert/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
