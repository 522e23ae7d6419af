package taxii1x

import (
	"bytes"
	"encoding/xml"
	"io"
)

// peekXMLRoot scans body for its root element's local name without fully
// decoding it, so the dispatcher can pick a message type before
// unmarshaling into a concrete struct.
func peekXMLRoot(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}
