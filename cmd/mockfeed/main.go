// Command mockfeed serves fixture payloads that mimic the GDACS RSS feed
// and the USGS event query endpoint, for local development without hitting
// (or being blocked by) the real upstreams. Point the service at it with:
//
//	GDACS_FEED_URL=http://localhost:9090/xml/rss.xml \
//	USGS_API_URL=http://localhost:9090/fdsnws/event/1/query \
//	go run ./cmd/monitor
//
// The -misbehave flag makes every endpoint return an HTML block page, which
// exercises the malformed-payload detection and cache fallback path.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:gdacs="http://www.gdacs.org" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#">
  <channel>
    <title>GDACS (mock)</title>
    <item>
      <title>Green earthquake alert (Magnitude 5.1M, Depth:10km) in Vanuatu</title>
      <link>https://www.gdacs.org/report.aspx?eventid=1485000</link>
      <description>Mock event for local development.</description>
      <pubDate>Wed, 17 Dec 2025 15:15:04 GMT</pubDate>
      <gdacs:fromdate>Wed, 17 Dec 2025 14:02:00 GMT</gdacs:fromdate>
      <gdacs:todate>Wed, 17 Dec 2025 14:02:00 GMT</gdacs:todate>
      <gdacs:eventtype>EQ</gdacs:eventtype>
      <gdacs:alertlevel>Green</gdacs:alertlevel>
      <gdacs:alertscore>1</gdacs:alertscore>
      <gdacs:country>Vanuatu</gdacs:country>
      <gdacs:iso3>VUT</gdacs:iso3>
      <gdacs:eventid>1485000</gdacs:eventid>
      <gdacs:episodeid>1</gdacs:episodeid>
      <gdacs:severity unit="M" value="5.1">Magnitude 5.1M, Depth:10km</gdacs:severity>
      <gdacs:population unit="people" value="0">0 people affected</gdacs:population>
      <geo:Point><geo:lat>-16.1</geo:lat><geo:long>167.4</geo:long></geo:Point>
    </item>
    <item>
      <title>Orange tropical cyclone alert (BELNA-25)</title>
      <link>https://www.gdacs.org/report.aspx?eventid=1485001</link>
      <description>Mock cyclone event.</description>
      <pubDate>Thu, 18 Dec 2025 03:00:00 GMT</pubDate>
      <gdacs:eventtype>TC</gdacs:eventtype>
      <gdacs:alertlevel>Orange</gdacs:alertlevel>
      <gdacs:alertscore>2.5</gdacs:alertscore>
      <gdacs:country>Madagascar</gdacs:country>
      <gdacs:iso3>MDG</gdacs:iso3>
      <gdacs:eventid>1485001</gdacs:eventid>
      <gdacs:severity unit="km/h" value="120">Maximum wind speed 120 km/h</gdacs:severity>
      <gdacs:population unit="people" value="255000">255000 people affected</gdacs:population>
      <geo:Point><geo:lat>-15.7</geo:lat><geo:long>46.3</geo:long></geo:Point>
    </item>
  </channel>
</rss>`

const geojsonFixture = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"mag":5.6,"place":"7 km E of Lakatoro, Vanuatu","time":1766066524000,"url":"https://earthquake.usgs.gov/earthquakes/eventpage/us7000mock","felt":12,"sig":483,"tsunami":0,"type":"earthquake","title":"M 5.6 - 7 km E of Lakatoro, Vanuatu","magType":"mww","status":"reviewed"},"geometry":{"type":"Point","coordinates":[167.475,-16.097,10.0]}},
  {"type":"Feature","properties":{"mag":7.2,"place":"south of the Fiji Islands","time":1766069000000,"url":"https://earthquake.usgs.gov/earthquakes/eventpage/us7000mck2","sig":798,"tsunami":1,"type":"earthquake","title":"M 7.2 - south of the Fiji Islands","magType":"mww","status":"reviewed"},"geometry":{"type":"Point","coordinates":[178.1,-24.8,560.0]}}
]}`

const quakemlFixture = `<?xml version="1.0" encoding="UTF-8"?>
<q:quakeml xmlns:q="http://quakeml.org/xmlns/quakeml/1.2" xmlns="http://quakeml.org/xmlns/bed/1.2">
  <eventParameters publicID="quakeml:earthquake.usgs.gov/fdsnws/event/1/query">
    <event publicID="quakeml:earthquake.usgs.gov/fdsnws/event/1/query?eventid=us7000mock">
      <description><text>7 km E of Lakatoro, Vanuatu</text></description>
      <magnitude publicID="quakeml:us7000mock/mww"><mag><value>5.6</value></mag></magnitude>
    </event>
  </eventParameters>
</q:quakeml>`

const htmlBlockPage = `<!DOCTYPE html><html><head><title>Access Denied</title></head>
<body><h1>Request blocked</h1><p>Mock proxy block page.</p></body></html>`

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	misbehave := flag.Bool("misbehave", false, "serve HTML block pages instead of feed payloads")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /xml/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		if *misbehave {
			serveHTML(w)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	})

	mux.HandleFunc("GET /fdsnws/event/1/query", func(w http.ResponseWriter, r *http.Request) {
		if *misbehave {
			serveHTML(w)
			return
		}
		if r.URL.Query().Get("format") == "xml" {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, quakemlFixture)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, geojsonFixture)
	})

	log.Printf("mockfeed listening on %s (misbehave=%v)", *addr, *misbehave)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func serveHTML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, htmlBlockPage)
}
