package timex

import (
	"testing"
	"time"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	// Test Unix()
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() = %v, want %v", tt.Unix(), now.Unix())
	}

	// Test UnixMilli()
	if tt.UnixMilli() != now.UnixMilli() {
		t.Errorf("UnixMilli() = %v, want %v", tt.UnixMilli(), now.UnixMilli())
	}

	// Test UnixMicro()
	if tt.UnixMicro() != now.UnixMicro() {
		t.Errorf("UnixMicro() = %v, want %v", tt.UnixMicro(), now.UnixMicro())
	}

	// Test UnixNano()
	if tt.UnixNano() != now.UnixNano() {
		t.Errorf("UnixNano() = %v, want %v", tt.UnixNano(), now.UnixNano())
	}

	// Verify it's not returning time.Now() by waiting a bit
	// 通过等待一会确认它不是返回 time.Now()
	time.Sleep(10 * time.Millisecond)
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() changed after sleep, it should be static. got %v, want %v", tt.Unix(), now.Unix())
	}
}

func TestTime_ScanFormats(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	inputs := []interface{}{
		want,
		"2024-05-06 07:08:09",
		[]byte("2024-05-06T07:08:09Z"),
		"2024-05-06 07:08:09+00:00",
		want.Unix(),
	}
	for _, in := range inputs {
		var got Time
		if err := got.Scan(in); err != nil {
			t.Fatalf("Scan(%v) error: %v", in, err)
		}
		if !got.Time().Equal(want) {
			t.Errorf("Scan(%v) = %v, want %v", in, got.Time(), want)
		}
	}

	var zero Time
	if err := zero.Scan(nil); err != nil || !zero.IsZero() {
		t.Errorf("Scan(nil) = %v, %v; want zero", zero, err)
	}
	if err := zero.Scan(3.14); err == nil {
		t.Error("Scan(float64) expected error")
	}
}

func TestTime_JSON(t *testing.T) {
	tt := Time(time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC))

	data, err := tt.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	if string(data) != `"2024-01-02T03:04:05.006Z"` {
		t.Errorf("MarshalJSON = %s", data)
	}

	var back Time
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	if !back.Time().Equal(tt.Time()) {
		t.Errorf("round trip = %v, want %v", back, tt)
	}

	zeroJSON, _ := Time{}.MarshalJSON()
	if string(zeroJSON) != "null" {
		t.Errorf("zero MarshalJSON = %s, want null", zeroJSON)
	}
}
