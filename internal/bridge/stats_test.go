package bridge

import "testing"

func TestStats_TypedAccessors(t *testing.T) {
	s := Stats{
		StatStressLevel:        "0.35",
		StatPacketRateDownload: "12000",
		StatShutdownInProgress: "true",
		StatRegion:             "us-east",
	}

	if v, ok := s.Float(StatStressLevel); !ok || v != 0.35 {
		t.Errorf("Float(stress_level): got %v, %v", v, ok)
	}
	if v, ok := s.Int(StatPacketRateDownload); !ok || v != 12000 {
		t.Errorf("Int(packet_rate_download): got %v, %v", v, ok)
	}
	if v, ok := s.Bool(StatShutdownInProgress); !ok || !v {
		t.Errorf("Bool(shutdown_in_progress): got %v, %v", v, ok)
	}
	if v, ok := s.String(StatRegion); !ok || v != "us-east" {
		t.Errorf("String(region): got %v, %v", v, ok)
	}
}

func TestStats_AbsentAndMalformed(t *testing.T) {
	s := Stats{StatStressLevel: "high"}

	if _, ok := s.Float(StatStressLevel); ok {
		t.Error("Float on malformed value: want ok=false")
	}
	if _, ok := s.Int(StatPacketRateUpload); ok {
		t.Error("Int on absent stat: want ok=false")
	}
	if _, ok := s.Bool(StatShutdownInProgress); ok {
		t.Error("Bool on absent stat: want ok=false")
	}
}
