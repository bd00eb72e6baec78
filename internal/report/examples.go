package report

import "fmt"

// Example is a built-in sample conversation.
type Example struct {
	Title        string `json:"title" yaml:"title"`
	Conversation string `json:"conversation" yaml:"conversation"`
}

// examples are Hindi doctor–patient dialogues, one utterance per line.
var examples = []Example{
	{
		Title: "Fever and Sore Throat",
		Conversation: `डॉक्टर: नमस्ते, बताइए आपको क्या परेशानी है?
मरीज: डॉक्टर साहब, पिछले तीन दिनों से बुखार है और गले में दर्द हो रहा है।
डॉक्टर: क्या खांसी या जुकाम भी है?
मरीज: हाँ, थोड़ी बहुत खांसी है और शरीर में भी दर्द है।
डॉक्टर: कोई एलर्जी या पुरानी बीमारी है?
मरीज: नहीं, ऐसा कुछ नहीं है।
डॉक्टर: ठीक है, मैं आपको पैरासिटामोल 500mg दिन में तीन बार खाने की सलाह देता हूँ।`,
	},
	{
		Title: "Headache and Eye Strain",
		Conversation: `डॉक्टर: नमस्ते, आपको कब से सिरदर्द हो रहा है?
मरीज: दो दिन से लगातार सिरदर्द हो रहा है, खासकर स्क्रीन देखने पर।
डॉक्टर: क्या चश्मा पहनते हैं?
मरीज: हाँ, लेकिन नंबर कुछ समय से चेक नहीं करवाया।
डॉक्टर: ठीक है, सबसे पहले एक आंखों की जांच करवाएं और इस बीच दर्द के लिए सिट्रापार 500mg लें।`,
	},
	{
		Title: "Diabetes Follow-Up",
		Conversation: `डॉक्टर: आपकी पिछली रिपोर्ट में शुगर का लेवल बढ़ा हुआ था। कैसा महसूस कर रहे हैं?
मरीज: थोड़ी थकान रहती है और कभी-कभी चक्कर भी आते हैं।
डॉक्टर: आपने दवाइयाँ नियमित ली हैं?
मरीज: हाँ, लेकिन डाइट में थोड़ी लापरवाही हो गई थी।
डॉक्टर: आपको ग्लूकोफेज 500mg सुबह-शाम फिर से शुरू करनी चाहिए और डाइट चार्ट फॉलो करें।`,
	},
}

// Examples returns the built-in sample conversations. The slice is a copy.
func Examples() []Example {
	result := make([]Example, len(examples))
	copy(result, examples)
	return result
}

// ExampleAt returns the n-th sample conversation, 1-based as shown to users.
func ExampleAt(n int) (Example, error) {
	if n < 1 || n > len(examples) {
		return Example{}, fmt.Errorf("example %d out of range (1-%d): %w", n, len(examples), ErrUnknownExample)
	}
	return examples[n-1], nil
}
