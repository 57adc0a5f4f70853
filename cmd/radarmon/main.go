package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/radar.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/radar/"
	filter  = "#"
)

func init() {
	if val := os.Getenv("RADAR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&filter, "topic", filter, "Topic filter under the prefix.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(filter, func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/meta") {
			if len(payload) == 0 {
				log.Printf("%s: gone", topic)
			} else {
				log.Printf("%s: %s", topic, string(payload))
			}
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
			return
		}
		body, _ := json.Marshal(msg)
		log.Printf("%s: #%d [%s] %s", topic, typed.Sequence, msgs.Name(msg), body)
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
