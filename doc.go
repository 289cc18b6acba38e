/*
go-epptrack tracks people in a video stream and reports which personal
protective equipment (EPP) each of them is wearing.  It takes the per frame
output of a PPE object detection model such as a YOLOv8 model trained on the
classes Person, helmet, no-helmet, goggles, no-goggles, vest and no-vest.

Each frame passes through an Engine which drops low confidence detections,
resolves contradicting equipment detections, gives every person a persistent
ID with a tracker backend, assigns equipment to the person wearing it and
builds a compliance record per person.

The runnable example program in example/epp replays recorded detections or
runs an ONNX model over a video with OpenCV.
*/
package epptrack
