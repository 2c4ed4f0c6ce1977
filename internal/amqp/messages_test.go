package amqp

import "testing"

func TestRecordEventMessageRoundTrip(t *testing.T) {
	msg := NewRecordEventMessage(ActionCreated, 101, "recABC")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := RecordEventMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.Action != ActionCreated || got.PersonID != 101 || got.RecordID != "recABC" {
		t.Errorf("decoded message = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}
